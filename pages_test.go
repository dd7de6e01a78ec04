package cloudauth

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCallbackSuccessPage(t *testing.T) {
	msg := callbackMessage{Type: "google-auth-success", Token: "tok-123"}
	msg.User.ID = 7
	msg.User.Email = "mia@example.com"
	msg.User.DisplayName = "Mia"
	msg.User.PhotoURL = "https://example.com/mia.png"

	w := httptest.NewRecorder()
	renderCallbackSuccess(w, "http://localhost:5500", msg)

	body := w.Body.String()
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	for _, want := range []string{
		"google-auth-success",
		"tok-123",
		"mia@example.com",
		"http://localhost:5500",
		"window.opener.postMessage",
		"window.close",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestCallbackErrorPageEscapesInput(t *testing.T) {
	w := httptest.NewRecorder()
	renderCallbackError(w, `<script>alert("x")</script>`)

	body := w.Body.String()
	if strings.Contains(body, `<script>alert`) {
		t.Error("provider-supplied message must be escaped")
	}
	if !strings.Contains(body, "Authentication Failed") {
		t.Error("page missing failure heading")
	}
}

package cloudauth

import (
	"html/template"
	"net/http"
)

// The OAuth callback runs in a popup. The session token is handed to the
// window that opened the popup via postMessage; the popup itself never keeps
// it. This page is that handoff.

type callbackMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	User  struct {
		ID          int64  `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
	} `json:"user"`
}

var callbackSuccessTmpl = template.Must(template.New("callback_success").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Authentication Successful</title>
<style>
body { font-family: 'Segoe UI', Tahoma, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); }
.card { background: white; border-radius: 15px; padding: 40px; text-align: center; max-width: 450px; width: 90%; box-shadow: 0 15px 35px rgba(0,0,0,0.2); }
h1 { color: #333; margin-bottom: 10px; }
p { color: #666; line-height: 1.6; }
button { background: #4CAF50; color: white; border: none; padding: 14px 35px; border-radius: 8px; font-size: 16px; cursor: pointer; width: 100%; }
</style>
<script>
(function() {
	var message = {{.Message}};
	var targetOrigin = {{.Origin}};
	if (window.opener && !window.opener.closed) {
		window.opener.postMessage(message, targetOrigin);
	}
	setTimeout(function() { window.close(); }, 2000);
})();
</script>
</head>
<body>
<div class="card">
	<h1>Welcome, {{.Message.User.DisplayName}}!</h1>
	<p>You have successfully authenticated with Google.</p>
	<p><strong>Email:</strong> {{.Message.User.Email}}</p>
	<p>This window will close automatically in a few seconds...</p>
	<button onclick="window.close()">Close Window Now</button>
</div>
</body>
</html>
`))

var callbackErrorTmpl = template.Must(template.New("callback_error").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Authentication Failed</title>
<style>
body { font-family: Arial, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; background: linear-gradient(135deg, #ff6b6b 0%, #ee5a52 100%); }
.card { background: white; color: #333; border-radius: 10px; padding: 40px; text-align: center; max-width: 500px; box-shadow: 0 10px 30px rgba(0,0,0,0.2); }
h1 { color: #ff4444; }
button { background: #ff4444; color: white; border: none; padding: 12px 30px; border-radius: 5px; font-size: 16px; cursor: pointer; }
</style>
</head>
<body>
<div class="card">
	<h1>Authentication Failed</h1>
	<p><strong>Error:</strong> {{.Message}}</p>
	<p>Please try again or contact support if the problem persists.</p>
	<button onclick="window.close()">Close Window</button>
</div>
</body>
</html>
`))

func renderCallbackSuccess(w http.ResponseWriter, origin string, msg callbackMessage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	callbackSuccessTmpl.Execute(w, map[string]any{
		"Message": msg,
		"Origin":  origin,
	})
}

func renderCallbackError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	callbackErrorTmpl.Execute(w, map[string]any{"Message": message})
}

package cloudauth

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDisplayNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"walt@example.com", "walt"},
		{"a.b.c@example.com", "a.b.c"},
		{"no-at-sign", "no-at-sign"},
		{"@leading.at", "@leading.at"},
	}
	for _, tt := range tests {
		if got := DisplayNameFromEmail(tt.email); got != tt.want {
			t.Errorf("DisplayNameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestHasPassword(t *testing.T) {
	empty := ""
	hash := "$2a$10$something"

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"with hash", User{PasswordHash: &hash}, true},
		{"nil hash", User{}, false},
		{"empty hash", User{PasswordHash: &empty}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasPassword(); got != tt.want {
				t.Errorf("HasPassword = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublicProjectionOmitsSecrets(t *testing.T) {
	hash := "$2a$10$secret"
	gid := "g-1"
	user := User{
		ID:           3,
		Email:        "yara@example.com",
		PasswordHash: &hash,
		GoogleID:     &gid,
		DisplayName:  "Yara",
	}

	raw, err := json.Marshal(user.Public())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "secret") {
		t.Error("projection leaked the password hash")
	}
	if strings.Contains(string(raw), "g-1") {
		t.Error("projection leaked the google id")
	}
}

func TestPermissionsForRole(t *testing.T) {
	if perms := PermissionsForRole(RoleSuperadmin); len(perms) != 4 {
		t.Errorf("superadmin perms = %v", perms)
	}
	if perms := PermissionsForRole(RoleManager); len(perms) != 2 {
		t.Errorf("manager perms = %v", perms)
	}
	if perms := PermissionsForRole("unknown"); len(perms) != 0 {
		t.Errorf("unknown role perms = %v", perms)
	}
	if perms := PermissionsForRole(""); perms == nil || len(perms) != 0 {
		t.Errorf("empty role perms = %v, want empty non-nil", perms)
	}
}

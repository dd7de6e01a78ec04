package cloudauth

import (
	"context"
	"fmt"
	"log"
)

// Admin roles. Admins are ordinary credential records carrying a Role; there
// is no separate admin credential table and no plaintext comparison.
const (
	RoleSuperadmin = "superadmin"
	RoleManager    = "manager"
)

var rolePermissions = map[string][]string{
	RoleSuperadmin: {"users:read", "users:write", "settings:read", "settings:write"},
	RoleManager:    {"users:read", "settings:read"},
}

// PermissionsForRole returns the permissions granted to a role. Unknown roles
// get none.
func PermissionsForRole(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return []string{}
	}
	return perms
}

// AdminSeed is a bootstrap admin account loaded from configuration. The
// password is hashed before it reaches any store.
type AdminSeed struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// SeedAdmins ensures each configured admin exists as a hashed-credential
// record with its role attached. Existing records are left untouched.
func SeedAdmins(ctx context.Context, store UserStore, seeds []AdminSeed) error {
	for _, seed := range seeds {
		if seed.Email == "" || seed.Password == "" {
			return fmt.Errorf("admin seed requires email and password")
		}
		if _, ok := rolePermissions[seed.Role]; !ok {
			return fmt.Errorf("unknown admin role %q for %s", seed.Role, seed.Email)
		}

		existing, err := store.FindUserByEmail(ctx, seed.Email)
		if err != nil {
			return fmt.Errorf("admin seed lookup: %w", err)
		}
		if existing != nil {
			continue
		}

		hash, err := HashPassword(seed.Password)
		if err != nil {
			return err
		}
		if _, err := store.SaveNewUser(ctx, NewUser{
			Email:        seed.Email,
			PasswordHash: &hash,
			Role:         seed.Role,
		}); err != nil {
			return fmt.Errorf("admin seed create: %w", err)
		}
		log.Printf("Seeded admin account %s (%s)", seed.Email, seed.Role)
	}
	return nil
}

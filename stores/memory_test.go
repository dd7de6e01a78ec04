package stores

import (
	"context"
	"fmt"
	"sync"
	"testing"

	ca "github.com/velumani/cloudauth"
)

func strptr(s string) *string { return &s }

func TestMemoryStoreSaveAndFind(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	user, err := store.SaveNewUser(ctx, ca.NewUser{
		Email:        "nora@example.com",
		PasswordHash: strptr("hash"),
		DisplayName:  "Nora",
	})
	if err != nil {
		t.Fatalf("SaveNewUser: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("ID = %d, want 1", user.ID)
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}

	found, err := store.FindUserByEmail(ctx, "nora@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatalf("found = %+v", found)
	}

	missing, err := store.FindUserByEmail(ctx, "absent@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if missing != nil {
		t.Errorf("absent lookup = %+v, want nil", missing)
	}
}

func TestMemoryStoreSequentialIDs(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		user, err := store.SaveNewUser(ctx, ca.NewUser{
			Email: fmt.Sprintf("user%d@example.com", i),
		})
		if err != nil {
			t.Fatalf("SaveNewUser %d: %v", i, err)
		}
		if user.ID != int64(i) {
			t.Errorf("ID = %d, want %d", user.ID, i)
		}
	}
}

func TestMemoryStoreDuplicateEmail(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	if _, err := store.SaveNewUser(ctx, ca.NewUser{Email: "dup@example.com"}); err != nil {
		t.Fatalf("SaveNewUser: %v", err)
	}
	if _, err := store.SaveNewUser(ctx, ca.NewUser{Email: "dup@example.com"}); err != ca.ErrDuplicateEmail {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestMemoryStoreConcurrentDuplicateSignup(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.SaveNewUser(ctx, ca.NewUser{Email: "race@example.com"})
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
		} else if err != ca.ErrDuplicateEmail {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("created = %d records for one email, want exactly 1", created)
	}
}

func TestFindOrCreateGoogleUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a fresh record", func(t *testing.T) {
		store := NewMemoryUserStore()
		user, err := store.FindOrCreateGoogleUser(ctx, "gid-1", "oly@example.com", "Oly")
		if err != nil {
			t.Fatalf("FindOrCreateGoogleUser: %v", err)
		}
		if user.GoogleID == nil || *user.GoogleID != "gid-1" {
			t.Errorf("GoogleID = %v", user.GoogleID)
		}
		if user.HasPassword() {
			t.Error("google-created record must not have a password")
		}
	})

	t.Run("repeat sign-in returns the same record", func(t *testing.T) {
		store := NewMemoryUserStore()
		first, err := store.FindOrCreateGoogleUser(ctx, "gid-2", "pam@example.com", "Pam")
		if err != nil {
			t.Fatalf("first: %v", err)
		}
		second, err := store.FindOrCreateGoogleUser(ctx, "gid-2", "pam@example.com", "Pam")
		if err != nil {
			t.Fatalf("second: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("IDs differ: %d vs %d", first.ID, second.ID)
		}
		all, _ := store.GetAllUsers(ctx)
		if len(all) != 1 {
			t.Errorf("records = %d, want 1", len(all))
		}
	})

	t.Run("links to an existing password account by email", func(t *testing.T) {
		store := NewMemoryUserStore()
		existing, err := store.SaveNewUser(ctx, ca.NewUser{
			Email:        "quin@example.com",
			PasswordHash: strptr("hash"),
			DisplayName:  "quin",
		})
		if err != nil {
			t.Fatalf("SaveNewUser: %v", err)
		}

		linked, err := store.FindOrCreateGoogleUser(ctx, "gid-3", "quin@example.com", "Quin Q")
		if err != nil {
			t.Fatalf("FindOrCreateGoogleUser: %v", err)
		}
		if linked.ID != existing.ID {
			t.Errorf("linked to ID %d, want %d", linked.ID, existing.ID)
		}
		if linked.GoogleID == nil || *linked.GoogleID != "gid-3" {
			t.Errorf("GoogleID = %v", linked.GoogleID)
		}
		if !linked.HasPassword() {
			t.Error("linking must keep the password hash")
		}
		if linked.DisplayName != "Quin Q" {
			t.Errorf("DisplayName = %q, want refreshed name", linked.DisplayName)
		}

		all, _ := store.GetAllUsers(ctx)
		if len(all) != 1 {
			t.Errorf("records = %d, want 1 (no duplicate for a known email)", len(all))
		}
	})
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	created, err := store.SaveNewUser(ctx, ca.NewUser{Email: "rex@example.com"})
	if err != nil {
		t.Fatalf("SaveNewUser: %v", err)
	}
	created.Email = "mutated@example.com"

	found, err := store.FindUserByEmail(ctx, "rex@example.com")
	if err != nil || found == nil {
		t.Fatalf("FindUserByEmail: %v %v", found, err)
	}
	if found.Email != "rex@example.com" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestMemoryStoreDefaultDisplayName(t *testing.T) {
	store := NewMemoryUserStore()
	user, err := store.SaveNewUser(context.Background(), ca.NewUser{Email: "sam.t@example.com"})
	if err != nil {
		t.Fatalf("SaveNewUser: %v", err)
	}
	if user.DisplayName != "sam.t" {
		t.Errorf("DisplayName = %q, want sam.t", user.DisplayName)
	}
}

package gae

import (
	"context"
	"time"

	"cloud.google.com/go/datastore"

	ca "github.com/velumani/cloudauth"
)

// UserStore implements ca.UserStore using Google Cloud Datastore.
type UserStore struct {
	client    *datastore.Client
	namespace string
}

// NewUserStore creates a Datastore-backed UserStore.
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{client: client, namespace: namespace}
}

func (s *UserStore) userKey(id int64) *datastore.Key {
	key := datastore.IDKey(KindUser, id, nil)
	key.Namespace = s.namespace
	return key
}

func (s *UserStore) emailKey(email string) *datastore.Key {
	key := datastore.NameKey(KindEmailIndex, email, nil)
	key.Namespace = s.namespace
	return key
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*ca.User, error) {
	var index EmailIndexEntity
	if err := s.client.Get(ctx, s.emailKey(email), &index); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, nil
		}
		return nil, err
	}

	var entity UserEntity
	if err := s.client.Get(ctx, s.userKey(index.UserID), &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			// stale index entry; treat as absent
			return nil, nil
		}
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) SaveNewUser(ctx context.Context, rec ca.NewUser) (*ca.User, error) {
	return s.insert(ctx, rec)
}

func (s *UserStore) FindOrCreateGoogleUser(ctx context.Context, googleID, email, displayName string) (*ca.User, error) {
	query := datastore.NewQuery(KindUser).Namespace(s.namespace).
		FilterField("google_id", "=", googleID).Limit(1)
	var entities []UserEntity
	if _, err := s.client.GetAll(ctx, query, &entities); err != nil {
		return nil, err
	}
	if len(entities) > 0 {
		return entities[0].ToUser(), nil
	}

	// Link by email if a record already owns this address.
	existing, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		key := s.userKey(existing.ID)
		_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
			var entity UserEntity
			if err := tx.Get(key, &entity); err != nil {
				return err
			}
			entity.GoogleID = googleID
			if displayName != "" {
				entity.DisplayName = displayName
			}
			_, err := tx.Put(key, &entity)
			return err
		})
		if err != nil {
			return nil, err
		}
		existing.GoogleID = &googleID
		if displayName != "" {
			existing.DisplayName = displayName
		}
		return existing, nil
	}

	gid := googleID
	return s.insert(ctx, ca.NewUser{
		Email:       email,
		GoogleID:    &gid,
		DisplayName: displayName,
	})
}

func (s *UserStore) GetAllUsers(ctx context.Context) ([]*ca.User, error) {
	query := datastore.NewQuery(KindUser).Namespace(s.namespace).Order("__key__")
	var entities []UserEntity
	if _, err := s.client.GetAll(ctx, query, &entities); err != nil {
		return nil, err
	}
	users := make([]*ca.User, len(entities))
	for i := range entities {
		users[i] = entities[i].ToUser()
	}
	return users, nil
}

// insert allocates a numeric id, then writes the User entity and the email
// sentinel in one transaction. A concurrent insert for the same email loses
// the transaction instead of creating a second record.
func (s *UserStore) insert(ctx context.Context, rec ca.NewUser) (*ca.User, error) {
	keys, err := s.client.AllocateIDs(ctx, []*datastore.Key{s.userKey(0)})
	if err != nil {
		return nil, err
	}
	userKey := keys[0]

	displayName := rec.DisplayName
	if displayName == "" {
		displayName = ca.DisplayNameFromEmail(rec.Email)
	}

	entity := &UserEntity{
		Email:       rec.Email,
		DisplayName: displayName,
		Role:        rec.Role,
		CreatedAt:   time.Now().UTC(),
	}
	if rec.PasswordHash != nil {
		entity.PasswordHash = *rec.PasswordHash
	}
	if rec.GoogleID != nil {
		entity.GoogleID = *rec.GoogleID
	}

	emailKey := s.emailKey(rec.Email)
	_, err = s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var index EmailIndexEntity
		if err := tx.Get(emailKey, &index); err == nil {
			return ca.ErrDuplicateEmail
		} else if err != datastore.ErrNoSuchEntity {
			return err
		}
		if _, err := tx.Put(userKey, entity); err != nil {
			return err
		}
		_, err := tx.Put(emailKey, &EmailIndexEntity{UserID: userKey.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	entity.Key = userKey
	return entity.ToUser(), nil
}

// Package gae provides a Google Cloud Datastore implementation of the
// cloudauth UserStore.
//
// # Datastore Kinds
//
//   - User: credential records, numeric auto-allocated keys
//   - EmailIndex: sentinel entities keyed by email; created in the same
//     transaction as the User entity so duplicate emails fail atomically
//     (Datastore has no unique constraints of its own)
//
// # Namespacing
//
// Stores accept a Datastore namespace to isolate tenants:
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	store := gae.NewUserStore(client, "") // default namespace
package gae

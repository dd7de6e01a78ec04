// Command server runs the authentication API over the store selected by
// configuration: Postgres via GORM, Google Cloud Datastore, or an in-memory
// store for local development.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/datastore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/velumani/cloudauth"
	"github.com/velumani/cloudauth/stores"
	gaestores "github.com/velumani/cloudauth/stores/gae"
	gormstores "github.com/velumani/cloudauth/stores/gorm"
)

func main() {
	cfg, err := cloudauth.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer cleanup()

	seeds, err := cfg.AdminSeeds()
	if err != nil {
		log.Fatalf("admin seeds: %v", err)
	}
	if err := cloudauth.SeedAdmins(ctx, store, seeds); err != nil {
		log.Fatalf("admin seeds: %v", err)
	}

	api, err := cloudauth.NewAPI(cfg, store)
	if err != nil {
		log.Fatalf("api: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("auth server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore picks the persistence backend. Postgres wins when configured,
// then Datastore, with the in-memory store as the development fallback.
func openStore(ctx context.Context, cfg *cloudauth.Config) (cloudauth.UserStore, func(), error) {
	noop := func() {}

	if cfg.PostgresDSN != "" {
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			return nil, noop, err
		}
		store := gormstores.NewUserStore(db)
		if err := store.AutoMigrate(); err != nil {
			return nil, noop, err
		}
		log.Println("using postgres store")
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return store, cleanup, nil
	}

	if cfg.DatastoreProject != "" {
		client, err := datastore.NewClient(ctx, cfg.DatastoreProject)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("using datastore store (project %s)", cfg.DatastoreProject)
		return gaestores.NewUserStore(client, ""), func() { client.Close() }, nil
	}

	log.Println("using in-memory store; data is lost on restart")
	return stores.NewMemoryUserStore(), noop, nil
}

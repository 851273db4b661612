package main

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"ruangan-admin-backend/config"
	"ruangan-admin-backend/internal/blob"
	"ruangan-admin-backend/internal/db"
	"ruangan-admin-backend/internal/store"
)

// backends holds the opened store and blob storage plus whatever must be
// closed on shutdown.
type backends struct {
	store   store.Store
	blob    blob.Storage
	closers []func() error
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func needsFirebase(cfg *config.Config) bool {
	return cfg.Store.Backend == "firestore" || cfg.Blob.Backend == "firebase"
}

// newFirebaseApp initializes the Firebase Admin SDK. Without a credentials
// file the SDK falls back to application default credentials.
func newFirebaseApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}

func openBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	b := &backends{}

	var app *firebase.App
	if needsFirebase(cfg) {
		var err error
		if app, err = newFirebaseApp(ctx, cfg.Firebase); err != nil {
			return nil, err
		}
	}

	switch cfg.Store.Backend {
	case "gorm":
		gormDB, err := db.Init(&cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, sqlDB.Close)
		b.store = store.NewGormStore(gormDB)
	case "firestore":
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("init firestore: %w", err)
		}
		b.closers = append(b.closers, client.Close)
		b.store = store.NewFirestoreStore(client)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}

	switch cfg.Blob.Backend {
	case "local":
		local, err := blob.NewLocalStorage(cfg.Blob.Dir, cfg.Blob.BaseURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.blob = local
	case "firebase":
		client, err := app.Storage(ctx)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("init firebase storage: %w", err)
		}
		bucket, err := client.DefaultBucket()
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("open storage bucket: %w", err)
		}
		b.blob = blob.NewFirebaseStorage(bucket, cfg.Firebase.StorageBucket)
	default:
		b.Close()
		return nil, fmt.Errorf("unsupported blob backend %q", cfg.Blob.Backend)
	}

	log.Info("backends ready",
		zap.String("store", cfg.Store.Backend),
		zap.String("blob", cfg.Blob.Backend))
	return b, nil
}

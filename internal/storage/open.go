package storage

import (
	"context"
	"fmt"

	"github.com/Varun5711/easywedding/internal/config"
	"github.com/Varun5711/easywedding/internal/database"
)

// Stores bundles the stores selected by STORE_DRIVER. DB is set only for the
// postgres driver.
type Stores struct {
	Users       CredentialStore
	Invitations InvitationStore
	DB          *database.DBManager
	ping        func(ctx context.Context) error
	close       func()
}

// Ping checks that the backing database answers. The memory driver always does.
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return ctx.Err()
	}
	return s.ping(ctx)
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects the configured backend and brings its schema up to date.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewDBManager(ctx, database.ConfigFrom(cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Stores{
			Users:       NewPostgresUserStorage(db),
			Invitations: NewPostgresInvitationStorage(db),
			DB:          db,
			ping:        db.Ping,
			close:       db.Close,
		}, nil

	case config.StoreDriverSQLite:
		db, err := OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Users:       NewSQLiteUserStorage(db),
			Invitations: NewSQLiteInvitationStorage(db),
			ping:        db.PingContext,
			close:       func() { db.Close() },
		}, nil

	case config.StoreDriverMemory:
		return &Stores{
			Users:       NewMemoryUserStorage(),
			Invitations: NewMemoryInvitationStorage(),
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

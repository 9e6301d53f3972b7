package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hindsightlabs/hindsight/internal/profile"
	"github.com/hindsightlabs/hindsight/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens (creating on first use) the store file at profile.DSN.
// The connection runs in WAL journal mode so readers stay concurrent with a
// writer, and waits up to 5 seconds on lock contention before a write fails
// with store.ErrBusy.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.Wrap(store.ErrUnavailable, "profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.Wrap(store.ErrUnavailable, "dsn is empty")
	}

	db, err := sql.Open("sqlite", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(store.ErrUnavailable, "failed to open database %s: %v", profile.DSN, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(store.ErrUnavailable, "failed to apply %q: %v", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(store.ErrUnavailable, "failed to ping database %s: %v", profile.DSN, err)
	}

	return &DB{
		db:      db,
		profile: profile,
	}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'decisions')",
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

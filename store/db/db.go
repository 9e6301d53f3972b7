package db

import (
	"github.com/pkg/errors"

	"github.com/hindsightlabs/hindsight/internal/profile"
	"github.com/hindsightlabs/hindsight/store"
	"github.com/hindsightlabs/hindsight/store/db/sqlite"
)

// NewDBDriver creates a new db driver based on profile.
//
// Only SQLite is supported: the store contract is one embedded file per
// agent, created on first use, with WAL-mode concurrent readers and a
// bounded busy timeout on write contention.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		driver, err := sqlite.NewDB(profile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create db driver")
		}
		return driver, nil
	default:
		return nil, errors.Wrapf(store.ErrUnavailable, "unknown db driver %q: only 'sqlite' is supported", profile.Driver)
	}
}

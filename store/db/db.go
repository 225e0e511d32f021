// Package db selects the database driver for the configured profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/procura-labs/procura/internal/profile"
	"github.com/procura-labs/procura/store"
	"github.com/procura-labs/procura/store/db/postgres"
	"github.com/procura-labs/procura/store/db/sqlite"
)

// NewDBDriver creates the driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}

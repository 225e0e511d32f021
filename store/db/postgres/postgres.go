package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	// Import the Postgres driver.
	_ "github.com/lib/pq"

	"github.com/procura-labs/procura/internal/profile"
	"github.com/procura-labs/procura/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the Postgres database at the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	pgDB.SetMaxOpenConns(10)
	pgDB.SetMaxIdleConns(5)
	pgDB.SetConnMaxLifetime(30 * time.Minute)

	driver := DB{db: pgDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS run (
	id BIGSERIAL PRIMARY KEY,
	trace_id TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'running',
	request_text TEXT NOT NULL DEFAULT '',
	request JSONB,
	candidates INTEGER NOT NULL DEFAULT 0,
	decision JSONB,
	order_result JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	stage_timings JSONB,
	created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
	updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
);

CREATE INDEX IF NOT EXISTS idx_run_status ON run (status);
`

// Migrate prepares the schema.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate postgres schema")
	}
	return nil
}

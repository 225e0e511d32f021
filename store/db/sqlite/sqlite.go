package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/procura-labs/procura/internal/profile"
	"github.com/procura-labs/procura/store"
)

// SQLite backs single-instance deployments and tests. Concurrent writers
// are not a goal; the connection pool is pinned to one connection under WAL.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at the profile DSN.
//
// Pragmas, per the modernc.org/sqlite driver convention (`_pragma=` prefix):
// foreign keys stay off to match SQLite's default, busy_timeout avoids
// transient lock errors, WAL is the journal mode that behaves under load.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

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
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trace_id TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'running',
	request_text TEXT NOT NULL DEFAULT '',
	request TEXT,
	candidates INTEGER NOT NULL DEFAULT 0,
	decision TEXT,
	order_result TEXT,
	error_message TEXT NOT NULL DEFAULT '',
	stage_timings TEXT,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_run_status ON run (status);
`

// Migrate prepares the schema.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate sqlite schema")
	}
	return nil
}

// Package store persists pipeline run audit records. The pipeline only ever
// writes here; reads serve the HTTP API and operator tooling.
package store

import (
	"context"

	"github.com/procura-labs/procura/internal/profile"
)

// Store provides database access to run records.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{driver: driver, profile: profile}
}

// GetDriver returns the underlying database driver.
func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate prepares the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateRun(ctx context.Context, create *Run) (*Run, error) {
	return s.driver.CreateRun(ctx, create)
}

func (s *Store) UpdateRun(ctx context.Context, update *UpdateRun) error {
	return s.driver.UpdateRun(ctx, update)
}

func (s *Store) GetRun(ctx context.Context, traceID string) (*Run, error) {
	return s.driver.GetRun(ctx, traceID)
}

func (s *Store) ListRuns(ctx context.Context, find *FindRun) ([]*Run, error) {
	return s.driver.ListRuns(ctx, find)
}

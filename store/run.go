package store

import (
	"context"
	"database/sql"

	"github.com/procura-labs/procura/agent"
)

// RunStatus is the lifecycle state of a persisted pipeline run.
type RunStatus string

const (
	RunStatusRunning            RunStatus = "running"
	RunStatusNeedsClarification RunStatus = "needs_clarification"
	RunStatusAwaitingApproval   RunStatus = "awaiting_approval"
	RunStatusCompleted          RunStatus = "completed"
	RunStatusFailed             RunStatus = "failed"
)

// Run is the audit record of one pipeline invocation.
type Run struct {
	ID      int64
	TraceID string
	Status  RunStatus

	// Input
	RequestText string
	Request     *agent.Request

	// Outcome
	Candidates   int
	Decision     *agent.Decision
	Order        *agent.OrderResult
	ErrorMessage string

	// Stage name to duration in milliseconds.
	StageTimings map[string]int64

	CreatedTs int64
	UpdatedTs int64
}

// UpdateRun carries the mutable fields of a run record. Nil fields are left
// untouched.
type UpdateRun struct {
	TraceID      string
	Status       *RunStatus
	Request      *agent.Request
	Candidates   *int
	Decision     *agent.Decision
	Order        *agent.OrderResult
	ErrorMessage *string
	StageTimings map[string]int64
}

// FindRun filters run listings.
type FindRun struct {
	TraceID *string
	Status  *RunStatus
	Limit   *int
	Offset  *int
}

// Driver is the database abstraction the store delegates to.
type Driver interface {
	GetDB() *sql.DB
	Migrate(ctx context.Context) error
	Close() error

	CreateRun(ctx context.Context, create *Run) (*Run, error)
	UpdateRun(ctx context.Context, update *UpdateRun) error
	GetRun(ctx context.Context, traceID string) (*Run, error)
	ListRuns(ctx context.Context, find *FindRun) ([]*Run, error)
}

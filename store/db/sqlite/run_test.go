package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/internal/profile"
	"github.com/procura-labs/procura/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "procura_test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)

	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, &store.Run{
		TraceID:     "trace-1",
		RequestText: "3 laptops under $2000",
		Request:     &agent.Request{ProductType: "laptop", Quantity: 3, Budget: "under $2000"},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, store.RunStatusRunning, created.Status)
	assert.NotZero(t, created.CreatedTs)

	status := store.RunStatusCompleted
	candidates := 5
	require.NoError(t, s.UpdateRun(ctx, &store.UpdateRun{
		TraceID:    "trace-1",
		Status:     &status,
		Candidates: &candidates,
		Decision: &agent.Decision{
			Action:        agent.ActionAutoApprove,
			ApprovalLevel: agent.ApprovalNone,
			Reason:        "within limit",
		},
		Order:        &agent.OrderResult{Status: "Order placed successfully", OrderID: "ORD-1", TrackingID: "TRK-1"},
		StageTimings: map[string]int64{"intake": 120, "productsearch": 2400},
	}))

	got, err := s.GetRun(ctx, "trace-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, store.RunStatusCompleted, got.Status)
	assert.Equal(t, 5, got.Candidates)
	assert.Equal(t, "laptop", got.Request.ProductType)
	assert.Equal(t, agent.ActionAutoApprove, got.Decision.Action)
	assert.Equal(t, "TRK-1", got.Order.TrackingID)
	assert.Equal(t, int64(2400), got.StageTimings["productsearch"])
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListRuns_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range []*store.Run{
		{TraceID: "t-1", Status: store.RunStatusCompleted},
		{TraceID: "t-2", Status: store.RunStatusFailed},
		{TraceID: "t-3", Status: store.RunStatusCompleted},
	} {
		_, err := s.CreateRun(ctx, r)
		require.NoError(t, err)
	}

	all, err := s.ListRuns(ctx, &store.FindRun{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed := store.RunStatusCompleted
	got, err := s.ListRuns(ctx, &store.FindRun{Status: &completed})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	limit := 1
	got, err = s.ListRuns(ctx, &store.FindRun{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestCreateRun_DuplicateTraceID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRun(ctx, &store.Run{TraceID: "dup"})
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, &store.Run{TraceID: "dup"})
	require.Error(t, err)
}

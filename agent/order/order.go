// Package order is the execution stage: placing (or simulating) the order
// for the chosen candidate.
package order

import (
	"context"
	"fmt"

	"github.com/procura-labs/procura/agent"
)

// Order statuses reported in OrderResult.Status.
const (
	StatusPlaced = "Order placed successfully"
	StatusFailed = "Order failed"
)

// Provider places an order for a product candidate.
type Provider interface {
	// Execute places an order for quantity units of the candidate.
	Execute(ctx context.Context, candidate *agent.Candidate, quantity int) (*agent.OrderResult, error)

	// Name returns the provider identifier.
	Name() string
}

// NewProvider creates the configured order provider. An empty provider name
// defaults to simulation.
func NewProvider(cfg agent.OrderConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "simulate":
		return NewSimulateProvider(), nil
	case "browser":
		return NewBrowserProvider(cfg.Headless), nil
	default:
		return nil, fmt.Errorf("unknown order provider %q", cfg.Provider)
	}
}

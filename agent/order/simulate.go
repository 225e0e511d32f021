package order

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura-labs/procura/agent"
)

// SimulateProvider fabricates a successful order confirmation without
// touching any merchant. It is the default backend and the one used in
// demos and tests.
type SimulateProvider struct {
	now func() time.Time
}

// NewSimulateProvider creates a simulation order provider.
func NewSimulateProvider() *SimulateProvider {
	return &SimulateProvider{now: time.Now}
}

// Name implements Provider.
func (p *SimulateProvider) Name() string { return "simulate" }

// Execute returns a confirmation with fresh order and tracking identifiers
// and a delivery estimate 3 to 14 days out.
func (p *SimulateProvider) Execute(_ context.Context, candidate *agent.Candidate, quantity int) (*agent.OrderResult, error) {
	if candidate == nil {
		return nil, fmt.Errorf("no candidate to order")
	}
	if quantity <= 0 {
		quantity = 1
	}

	deliveryDays := 3 + rand.Intn(12)
	deliveryDate := p.now().AddDate(0, 0, deliveryDays)

	return &agent.OrderResult{
		Status:            StatusPlaced,
		OrderID:           newOrderID("ORD"),
		TrackingID:        newOrderID("TRK"),
		Product:           candidate.Name,
		Price:             candidate.Price,
		Quantity:          quantity,
		EstimatedDelivery: deliveryDate.Format("2006-01-02"),
	}, nil
}

func newOrderID(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + id[:10]
}

package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/procura-labs/procura/agent"
)

const (
	browserTimeout    = 90 * time.Second
	cartActionTimeout = 10 * time.Second
)

// BrowserProvider drives a headless Chrome through the merchant checkout:
// open the product page, set the quantity, add to cart. Confirmation
// identifiers are still generated locally; real checkout flows stop at the
// cart by policy.
type BrowserProvider struct {
	headless bool
	simulate *SimulateProvider
}

// NewBrowserProvider creates a browser-automation order provider.
func NewBrowserProvider(headless bool) *BrowserProvider {
	return &BrowserProvider{headless: headless, simulate: NewSimulateProvider()}
}

// Name implements Provider.
func (p *BrowserProvider) Name() string { return "browser" }

// Execute navigates to the candidate URL, fills the quantity field, and
// clicks the add-to-cart button. Missing quantity or cart controls on the
// page are tolerated; a navigation failure is not.
func (p *BrowserProvider) Execute(ctx context.Context, candidate *agent.Candidate, quantity int) (*agent.OrderResult, error) {
	if candidate == nil || candidate.URL == "" {
		return nil, fmt.Errorf("no candidate URL to order from")
	}
	if quantity <= 0 {
		quantity = 1
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.headless),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, browserTimeout)
	defer cancelTimeout()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(candidate.URL),
		chromedp.WaitReady("body"),
	); err != nil {
		return &agent.OrderResult{Status: StatusFailed}, fmt.Errorf("failed to open product page %s: %w", candidate.URL, err)
	}

	p.try(browserCtx, "set quantity",
		chromedp.SetValue(`input[type="number"]`, fmt.Sprintf("%d", quantity), chromedp.ByQuery))
	p.try(browserCtx, "add to cart",
		chromedp.Click(`button[name="add-to-cart"], button.add-to-cart, #add-to-cart`, chromedp.ByQuery))

	// Let the cart update settle before tearing the browser down.
	_ = chromedp.Run(browserCtx, chromedp.Sleep(2*time.Second))

	result, err := p.simulate.Execute(ctx, candidate, quantity)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// try runs one optional page action with its own short timeout. Pages
// without the expected control just skip the step.
func (p *BrowserProvider) try(ctx context.Context, step string, action chromedp.Action) {
	stepCtx, cancel := context.WithTimeout(ctx, cartActionTimeout)
	defer cancel()
	if err := chromedp.Run(stepCtx, action); err != nil {
		slog.Debug("order: page action skipped", "step", step, "error", err)
	}
}

// Package agent holds the shared procurement pipeline types and the
// configuration wiring between the instance profile and the stage services.
package agent

import "strings"

// Request is a procurement request: the raw text plus the structured fields
// extracted from it. Clarification answers are merged in additively; the
// value never outlives the pipeline run that created it.
type Request struct {
	RawText             string   `json:"raw_text"`
	ProductType         string   `json:"product_type"`
	Quantity            int      `json:"quantity"`
	Budget              string   `json:"budget"`
	SpecialRequirements []string `json:"special_requirements"`
	Urgency             string   `json:"urgency"`
	PreferredSuppliers  []string `json:"preferred_suppliers"`
	Location            string   `json:"location"`
}

// requiredFields are the fields a request must carry before product search.
var requiredFields = []struct {
	name  string
	empty func(*Request) bool
}{
	{"product_type", func(r *Request) bool { return strings.TrimSpace(r.ProductType) == "" }},
	{"quantity", func(r *Request) bool { return r.Quantity <= 0 }},
	{"budget", func(r *Request) bool { return strings.TrimSpace(r.Budget) == "" }},
}

// MissingFields returns the required fields that are still empty.
func (r *Request) MissingFields() []string {
	var missing []string
	for _, f := range requiredFields {
		if f.empty(r) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Merge copies non-empty fields of other into r. Existing values are only
// overwritten by newer non-empty values; list fields are appended.
func (r *Request) Merge(other *Request) {
	if other == nil {
		return
	}
	if strings.TrimSpace(other.ProductType) != "" {
		r.ProductType = other.ProductType
	}
	if other.Quantity > 0 {
		r.Quantity = other.Quantity
	}
	if strings.TrimSpace(other.Budget) != "" {
		r.Budget = other.Budget
	}
	if strings.TrimSpace(other.Urgency) != "" {
		r.Urgency = other.Urgency
	}
	if strings.TrimSpace(other.Location) != "" {
		r.Location = other.Location
	}
	r.SpecialRequirements = append(r.SpecialRequirements, other.SpecialRequirements...)
	r.PreferredSuppliers = append(r.PreferredSuppliers, other.PreferredSuppliers...)
}

// IsUrgent reports whether the request was flagged as urgent.
func (r *Request) IsUrgent() bool {
	switch strings.ToLower(strings.TrimSpace(r.Urgency)) {
	case "urgent", "high", "immediate", "asap":
		return true
	}
	return false
}

// QA is one clarification turn.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ClarificationExchange is the ordered question/answer history for a request.
// It grows until no required fields are missing or the turn cap is hit.
type ClarificationExchange struct {
	Turns []QA `json:"turns"`
}

// Candidate is a product listing produced by the search stage.
// Immutable once fetched.
type Candidate struct {
	Name                 string            `json:"name"`
	Price                string            `json:"price"`
	URL                  string            `json:"url"`
	Source               string            `json:"source"`
	Description          string            `json:"description"`
	KeySpecs             map[string]string `json:"key_specs,omitempty"`
	DeliveryTime         string            `json:"delivery_time,omitempty"`
	RelevanceScore       float64           `json:"relevance_score"`
	RecommendationReason string            `json:"recommendation_reason,omitempty"`
	PriceEstimated       bool              `json:"price_estimated,omitempty"`
}

// Evaluation is the score and rationale the evaluation stage attaches to a
// candidate. One evaluation per candidate.
type Evaluation struct {
	Candidate Candidate `json:"candidate"`
	Score     float64   `json:"score"`
	Rationale string    `json:"rationale"`
}

// Action is the outcome of the decision stage.
type Action string

const (
	ActionAutoApprove   Action = "auto_approve"
	ActionNeedsApproval Action = "needs_approval"
)

// ApprovalLevel indicates who must sign off when approval is required.
type ApprovalLevel string

const (
	ApprovalNone      ApprovalLevel = "none"
	ApprovalManager   ApprovalLevel = "department_manager"
	ApprovalExecutive ApprovalLevel = "executive"
)

// Decision is the approval-routing outcome for a request.
type Decision struct {
	Action        Action        `json:"action"`
	ApprovalLevel ApprovalLevel `json:"approval_level"`
	Reason        string        `json:"reason"`
}

// OrderResult is the confirmation record of an executed (or simulated) order.
type OrderResult struct {
	Status            string `json:"status"`
	OrderID           string `json:"order_id"`
	TrackingID        string `json:"tracking_id"`
	Product           string `json:"product"`
	Price             string `json:"price"`
	Quantity          int    `json:"quantity"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
}

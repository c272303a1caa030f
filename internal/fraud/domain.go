package fraud

// Signal types consumed by the external statistical detector.
const (
	SignalRoleAbuse     = "ROLE_ABUSE"
	SignalStockMismatch = "STOCK_MISMATCH"
)

// Severity levels attached to signals.
const (
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Signal is a single observation handed to the fraud detector. Delivery is
// best-effort: no gate decision ever depends on it.
type Signal struct {
	BusinessID  string         `json:"business_id"`
	UserID      string         `json:"user_id"`
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Description string         `json:"description"`
	Payload     map[string]any `json:"payload,omitempty"`
}

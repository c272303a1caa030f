package audit

import "time"

// Entity names recorded in the target_entity column.
const (
	EntityPermission    = "PERMISSION"
	EntityPeriod        = "ACCOUNTING_PERIOD"
	EntityCashClosing   = "CASH_CLOSING"
	EntityCustomer      = "CUSTOMER"
	EntityStockMovement = "STOCK_MOVEMENT"
	EntitySession       = "USER_SESSION"
)

// Actions recorded in the action column.
const (
	ActionDenied         = "DENIED"
	ActionPeriodLocked   = "PERIOD_LOCKED"
	ActionPeriodUnlocked = "PERIOD_UNLOCKED"
	ActionStockAdjusted  = "STOCK_ADJUSTED"
	ActionStockMismatch  = "STOCK_MISMATCH_FLAGGED"
	ActionCreditBlocked  = "CREDIT_BLOCKED"
	ActionCreditLimitSet = "CREDIT_LIMIT_UPDATED"
	ActionForceLogout    = "SESSION_FORCE_LOGOUT"
)

// Payload is the closed set of structured audit payloads. Each action kind
// carries its own type so malformed ad hoc maps never reach the sink.
type Payload interface {
	auditPayload()
}

// PermissionDenied captures an authorization denial.
type PermissionDenied struct {
	Permission string `json:"permission"`
	Role       string `json:"role"`
	Context    string `json:"context,omitempty"`
}

// PeriodLockChange captures a period lock or unlock transition.
type PeriodLockChange struct {
	PeriodID   string `json:"period_id"`
	PeriodName string `json:"period_name"`
	WasLocked  bool   `json:"was_locked"`
	NowLocked  bool   `json:"now_locked"`
	Reason     string `json:"reason,omitempty"`
	SystemLock bool   `json:"system_lock,omitempty"`
}

// StockAdjusted captures a manual stock change.
type StockAdjusted struct {
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name"`
	OldQuantity    float64 `json:"old_quantity"`
	NewQuantity    float64 `json:"new_quantity"`
	QuantityChange float64 `json:"quantity_change"`
	Reason         string  `json:"reason"`
	ReferenceID    string  `json:"reference_id,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

// StockMismatch flags a statistically large adjustment.
type StockMismatch struct {
	ProductID     string  `json:"product_id"`
	ChangePercent float64 `json:"change_percent"`
	Severity      string  `json:"severity"`
}

// CreditChange captures block/unblock/limit mutations on a customer.
type CreditChange struct {
	CustomerID string `json:"customer_id"`
	Field      string `json:"field"`
	OldValue   string `json:"old_value,omitempty"`
	NewValue   string `json:"new_value,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// SessionTerminated captures a forced remote logout.
type SessionTerminated struct {
	SessionID  string `json:"session_id"`
	DeviceName string `json:"device_name,omitempty"`
	Platform   string `json:"platform,omitempty"`
}

func (PermissionDenied) auditPayload()  {}
func (PeriodLockChange) auditPayload()  {}
func (StockAdjusted) auditPayload()     {}
func (StockMismatch) auditPayload()     {}
func (CreditChange) auditPayload()      {}
func (SessionTerminated) auditPayload() {}

// Entry is a single append-only audit record. Entries are never updated or
// deleted by this core.
type Entry struct {
	UserID   string
	Entity   string
	RecordID string
	Action   string
	OldValue Payload
	NewValue Payload
	At       time.Time
}

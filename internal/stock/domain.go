package stock

import "time"

// Reason classifies a manual stock change. The taxonomy is fixed; each
// reason carries static facets that are not user-configurable.
type Reason string

const (
	ReasonPurchaseReceived Reason = "PURCHASE_RECEIVED"
	ReasonSale             Reason = "SALE"
	ReasonCustomerReturn   Reason = "CUSTOMER_RETURN"
	ReasonSupplierReturn   Reason = "SUPPLIER_RETURN"
	ReasonDamageOrExpiry   Reason = "DAMAGE_OR_EXPIRY"
	ReasonTheft            Reason = "THEFT"
	ReasonCountCorrection  Reason = "COUNT_CORRECTION"
	ReasonOpeningBalance   Reason = "OPENING_BALANCE"
	ReasonTransfer         Reason = "TRANSFER"
	ReasonSample           Reason = "SAMPLE"
	ReasonOther            Reason = "OTHER"
)

// Facets are the step-up requirements attached to a reason.
type Facets struct {
	RequiresNotes bool
	RequiresPin   bool
}

var reasonFacets = map[Reason]Facets{
	ReasonPurchaseReceived: {RequiresNotes: false, RequiresPin: false},
	ReasonSale:             {RequiresNotes: false, RequiresPin: false},
	ReasonCustomerReturn:   {RequiresNotes: false, RequiresPin: false},
	ReasonSupplierReturn:   {RequiresNotes: true, RequiresPin: false},
	ReasonDamageOrExpiry:   {RequiresNotes: true, RequiresPin: false},
	ReasonTheft:            {RequiresNotes: true, RequiresPin: true},
	ReasonCountCorrection:  {RequiresNotes: true, RequiresPin: true},
	ReasonOpeningBalance:   {RequiresNotes: false, RequiresPin: false},
	ReasonTransfer:         {RequiresNotes: true, RequiresPin: false},
	ReasonSample:           {RequiresNotes: true, RequiresPin: false},
	ReasonOther:            {RequiresNotes: true, RequiresPin: true},
}

// FacetsFor returns the facets for a reason and whether the reason is known.
func FacetsFor(reason Reason) (Facets, bool) {
	f, ok := reasonFacets[reason]
	return f, ok
}

// AdjustmentRequest describes a proposed manual stock change.
type AdjustmentRequest struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	OldQuantity float64   `json:"old_quantity"`
	NewQuantity float64   `json:"new_quantity"`
	Reason      Reason    `json:"reason"`
	ReferenceID string    `json:"reference_id,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	AdjustedBy  string    `json:"adjusted_by"`
	At          time.Time `json:"at"`
}

// QuantityChange is the signed delta of the adjustment.
func (r AdjustmentRequest) QuantityChange() float64 {
	return r.NewQuantity - r.OldQuantity
}

// ValidationResult is the gate decision for an adjustment. PinRequired is
// reported distinctly so the caller can re-prompt instead of failing.
type ValidationResult struct {
	Allowed     bool   `json:"allowed"`
	PinRequired bool   `json:"pin_required"`
	Error       string `json:"error,omitempty"`
}

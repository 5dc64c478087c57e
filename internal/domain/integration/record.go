package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/booksync/backend/internal/domain/shared/valueobject"
)

// ---------------------------------------------------------------------------
// Canonical records
//
// Canonical records are produced by the transformer from heterogeneous
// external record shapes. They are value objects: build once, never mutate.
// The Values bag holds the post-mapping fields destined for the internal
// model; the structured fields on each record are the ones the loader must
// special-case.
// ---------------------------------------------------------------------------

// Record is the behavior shared by all canonical record variants
type Record interface {
	// Object returns the object type of this record
	Object() ObjectType
	// External returns the external id of this record on the platform
	External() string
	// Fields returns the post-mapping field bag
	Fields() map[string]any
}

// Customer represents a canonical customer record
type Customer struct {
	// IntegrationID is the integration this record was extracted from
	IntegrationID uuid.UUID
	// ExternalID is the customer's id on the external platform
	ExternalID string
	// Values is the post-mapping field bag destined for the internal model
	Values map[string]any
	// Deleted indicates the customer was deleted on the platform
	Deleted bool
}

// Object returns ObjectTypeCustomer
func (c *Customer) Object() ObjectType { return ObjectTypeCustomer }

// External returns the external id
func (c *Customer) External() string { return c.ExternalID }

// Fields returns the field bag
func (c *Customer) Fields() map[string]any { return c.Values }

// InvoiceInstallment represents one installment of an invoice payment plan
type InvoiceInstallment struct {
	// Sequence is the 1-based installment position
	Sequence int
	// DueAt is when the installment is due
	DueAt time.Time
	// Amount is the installment amount
	Amount valueobject.Money
}

// Invoice represents a canonical invoice record
type Invoice struct {
	// IntegrationID is the integration this record was extracted from
	IntegrationID uuid.UUID
	// ExternalID is the invoice's id on the external platform
	ExternalID string
	// CustomerExternalID references the owning customer on the platform
	CustomerExternalID string
	// Values is the post-mapping field bag destined for the internal model
	Values map[string]any
	// Balance is the open balance reported by the platform, nil if unknown
	Balance *valueobject.Money
	// Voided indicates the invoice was voided on the platform (soft-void)
	Voided bool
	// Deleted indicates the invoice was deleted on the platform
	Deleted bool
	// Installments holds the payment plan, empty for single-due invoices
	Installments []InvoiceInstallment
}

// Object returns ObjectTypeInvoice
func (i *Invoice) Object() ObjectType { return ObjectTypeInvoice }

// External returns the external id
func (i *Invoice) External() string { return i.ExternalID }

// Fields returns the field bag
func (i *Invoice) Fields() map[string]any { return i.Values }

// CreditNote represents a canonical credit note record
type CreditNote struct {
	// IntegrationID is the integration this record was extracted from
	IntegrationID uuid.UUID
	// ExternalID is the credit note's id on the external platform
	ExternalID string
	// CustomerExternalID references the owning customer on the platform
	CustomerExternalID string
	// Values is the post-mapping field bag destined for the internal model
	Values map[string]any
	// Voided indicates the credit note was voided on the platform
	Voided bool
	// Deleted indicates the credit note was deleted on the platform
	Deleted bool
}

// Object returns ObjectTypeCreditNote
func (c *CreditNote) Object() ObjectType { return ObjectTypeCreditNote }

// External returns the external id
func (c *CreditNote) External() string { return c.ExternalID }

// Fields returns the field bag
func (c *CreditNote) Fields() map[string]any { return c.Values }

// PaymentItemKind distinguishes the settlement lines carried by a payment
type PaymentItemKind string

const (
	// PaymentItemKindInvoice is a settlement line against an invoice
	PaymentItemKindInvoice PaymentItemKind = "INVOICE"
	// PaymentItemKindCredit is a settlement line funded by a credit note
	PaymentItemKindCredit PaymentItemKind = "CREDIT"
)

// PaymentItem represents one settlement line extracted with a payment,
// in extraction order. Order is load-bearing for split allocation.
type PaymentItem struct {
	// Kind says whether the line targets an invoice or draws on a credit
	Kind PaymentItemKind
	// DocumentExternalID is the invoice or credit note id on the platform
	DocumentExternalID string
	// Amount is the line amount
	Amount valueobject.Money
}

// PaymentSplitSource distinguishes how a split is funded
type PaymentSplitSource string

const (
	// PaymentSplitSourceCredit is funded by an applied credit note
	PaymentSplitSourceCredit PaymentSplitSource = "CREDIT"
	// PaymentSplitSourceCash is funded by the payment itself
	PaymentSplitSourceCash PaymentSplitSource = "CASH"
)

// PaymentSplit represents one allocation of a payment to an invoice
type PaymentSplit struct {
	// InvoiceExternalID is the invoice the amount is applied to
	InvoiceExternalID string
	// Source says whether the split is credit-funded or cash
	Source PaymentSplitSource
	// CreditExternalID is the funding credit note, empty for cash splits
	CreditExternalID string
	// Amount is the applied amount
	Amount valueobject.Money
}

// Payment represents a canonical payment record
type Payment struct {
	// IntegrationID is the integration this record was extracted from
	IntegrationID uuid.UUID
	// ExternalID is the payment's id on the external platform
	ExternalID string
	// CustomerExternalID references the paying customer on the platform
	CustomerExternalID string
	// Values is the post-mapping field bag destined for the internal model
	Values map[string]any
	// Items are the raw settlement lines in extraction order
	Items []PaymentItem
	// AppliedTo holds the allocated splits (see the split allocator)
	AppliedTo []PaymentSplit
	// Deleted indicates the payment was deleted on the platform
	Deleted bool
}

// Object returns ObjectTypePayment
func (p *Payment) Object() ObjectType { return ObjectTypePayment }

// External returns the external id
func (p *Payment) External() string { return p.ExternalID }

// Fields returns the field bag
func (p *Payment) Fields() map[string]any { return p.Values }

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeCreditSaleIssued = "sale.credit_issued"
	EventTypePaymentApplied   = "payment.applied"
	EventTypeLedgerCorrected  = "ledger.corrected"
)

// DomainEvent represents a domain event
type DomainEvent interface {
	GetEventID() string
	GetEventType() string
	GetAggregateID() string
	GetOccurredAt() time.Time
	GetPayload() interface{}
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e BaseEvent) GetEventID() string       { return e.EventID }
func (e BaseEvent) GetEventType() string     { return e.EventType }
func (e BaseEvent) GetAggregateID() string   { return e.AggregateID }
func (e BaseEvent) GetOccurredAt() time.Time { return e.OccurredAt }

func newBaseEvent(eventType, customerID string) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		AggregateID: customerID,
		OccurredAt:  time.Now(),
	}
}

// CreditSaleIssuedEvent - a credit invoice was booked
type CreditSaleIssuedEvent struct {
	BaseEvent
	Payload CreditSaleIssuedPayload `json:"payload"`
}

func (e CreditSaleIssuedEvent) GetPayload() interface{} { return e.Payload }

type CreditSaleIssuedPayload struct {
	CustomerID      string          `json:"customer_id"`
	SaleID          string          `json:"sale_id"`
	Folio           string          `json:"folio"`
	Total           decimal.Decimal `json:"total"`
	DueDate         time.Time       `json:"due_date"`
	CurrentDebt     decimal.Decimal `json:"current_debt"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

func NewCreditSaleIssuedEvent(customerID string, payload CreditSaleIssuedPayload) *CreditSaleIssuedEvent {
	return &CreditSaleIssuedEvent{
		BaseEvent: newBaseEvent(EventTypeCreditSaleIssued, customerID),
		Payload:   payload,
	}
}

// PaymentAppliedEvent - a payment was allocated across invoices
type PaymentAppliedEvent struct {
	BaseEvent
	Payload PaymentAppliedPayload `json:"payload"`
}

func (e PaymentAppliedEvent) GetPayload() interface{} { return e.Payload }

type PaymentAppliedPayload struct {
	CustomerID    string          `json:"customer_id"`
	Reference     string          `json:"reference,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Applied       decimal.Decimal `json:"applied"`
	AdvanceAmount decimal.Decimal `json:"advance_amount"`
	SalesTouched  int             `json:"sales_touched"`
	SalesSettled  int             `json:"sales_settled"`
	CurrentDebt   decimal.Decimal `json:"current_debt"`
	Reallocation  bool            `json:"reallocation"`
	ProcessedAt   time.Time       `json:"processed_at"`
}

func NewPaymentAppliedEvent(customerID string, payload PaymentAppliedPayload) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseEvent: newBaseEvent(EventTypePaymentApplied, customerID),
		Payload:   payload,
	}
}

// LedgerCorrectedEvent - the reconciler overwrote drifted debt
type LedgerCorrectedEvent struct {
	BaseEvent
	Payload LedgerCorrectedPayload `json:"payload"`
}

func (e LedgerCorrectedEvent) GetPayload() interface{} { return e.Payload }

type LedgerCorrectedPayload struct {
	CustomerID    string          `json:"customer_id"`
	PreviousDebt  decimal.Decimal `json:"previous_debt"`
	CorrectedDebt decimal.Decimal `json:"corrected_debt"`
	CorrectedAt   time.Time       `json:"corrected_at"`
}

func NewLedgerCorrectedEvent(customerID string, payload LedgerCorrectedPayload) *LedgerCorrectedEvent {
	return &LedgerCorrectedEvent{
		BaseEvent: newBaseEvent(EventTypeLedgerCorrected, customerID),
		Payload:   payload,
	}
}

// EventPublisher interface
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// EventSubscriber interface
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType string, handler EventHandler) error
}

// EventHandler processes events
type EventHandler func(ctx context.Context, event DomainEvent) error

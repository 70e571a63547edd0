// Package payments models the card processor contract used at checkout.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDeclined is returned when the processor refuses the charge.
var ErrDeclined = errors.New("payment declined")

// ChargeRequest describes an amount to collect for an order. Reference is the
// order id, which is fixed before charging; the order number may still move
// when the insert loses a numbering race.
type ChargeRequest struct {
	Reference string
	Method    enums.PaymentMethod
	Amount    decimal.Decimal
	Email     string
}

// Charge is the processor's record of a payment attempt.
type Charge struct {
	Reference     string
	Provider      string
	TransactionID string
	Amount        decimal.Decimal
	Status        enums.PaymentStatus
	At            time.Time
}

// Gateway is a two-step payment processor. Authorize holds funds, Capture
// collects them and Void releases an authorization or reverses a capture.
type Gateway interface {
	Authorize(ctx context.Context, req ChargeRequest) (*Charge, error)
	Capture(ctx context.Context, charge *Charge) (*Charge, error)
	Void(ctx context.Context, charge *Charge) error
}

// AlwaysApprove accepts every charge. It is the default gateway until a real
// processor is wired.
type AlwaysApprove struct {
	now func() time.Time
}

func NewAlwaysApprove() *AlwaysApprove {
	return &AlwaysApprove{now: time.Now}
}

func (g *AlwaysApprove) Authorize(_ context.Context, req ChargeRequest) (*Charge, error) {
	if req.Reference == "" {
		return nil, fmt.Errorf("charge reference required")
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("charge amount must not be negative")
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("unsupported payment method %q", req.Method)
	}
	return &Charge{
		Reference:     req.Reference,
		Provider:      "internal",
		TransactionID: uuid.NewString(),
		Amount:        req.Amount,
		Status:        enums.PaymentStatusAuthorized,
		At:            g.now().UTC(),
	}, nil
}

func (g *AlwaysApprove) Capture(_ context.Context, charge *Charge) (*Charge, error) {
	if charge == nil || charge.Status != enums.PaymentStatusAuthorized {
		return nil, fmt.Errorf("capture requires an authorized charge")
	}
	captured := *charge
	captured.Status = enums.PaymentStatusCaptured
	captured.At = g.now().UTC()
	return &captured, nil
}

func (g *AlwaysApprove) Void(_ context.Context, charge *Charge) error {
	if charge == nil {
		return nil
	}
	charge.Status = enums.PaymentStatusVoided
	return nil
}

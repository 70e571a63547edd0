package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/internal/cart"
	"github.com/dovl-commerce/dovl-backend/internal/checkout/helpers"
	"github.com/dovl-commerce/dovl-backend/internal/checkout/reservation"
	"github.com/dovl-commerce/dovl-backend/internal/orders"
	"github.com/dovl-commerce/dovl-backend/internal/payments"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/dovl-commerce/dovl-backend/pkg/metrics"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const paymentApprovedDescription = "Payment approved, order is being prepared"

type cartPricer interface {
	Price(ctx context.Context, stored *models.Cart, buyer *campaigns.BuyerContext) (*cart.Priced, error)
}

type stockKeeper interface {
	DecrementVariantStock(ctx context.Context, productID primitive.ObjectID, sku string, qty int) (bool, error)
	ReleaseVariantStock(ctx context.Context, productID primitive.ObjectID, sku string, qty int) error
}

type numberSource interface {
	Next(ctx context.Context) (orders.Number, error)
}

type orderInserter interface {
	Insert(ctx context.Context, order *models.Order) error
}

type usageCounter interface {
	IncrementUsage(ctx context.Context, id primitive.ObjectID) error
}

type orderRecorder interface {
	RecordOrder(ctx context.Context, userID, orderID primitive.ObjectID, campaignID *primitive.ObjectID) error
}

// Deps are the collaborators checkout needs. Metrics may be nil.
type Deps struct {
	Carts     cart.CartRepository
	Pricer    cartPricer
	Buyers    campaigns.BuyerLoader
	Stock     stockKeeper
	Numbers   numberSource
	Orders    orderInserter
	Gateway   payments.Gateway
	Campaigns usageCounter
	Users     orderRecorder
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
}

// Input is one checkout request.
type Input struct {
	Identity        cart.Identity
	ShippingAddress types.Address
	BillingAddress  *types.Address
	PaymentMethod   enums.PaymentMethod
	GuestEmail      string
	Notes           string
}

// Result identifies the committed order.
type Result struct {
	OrderID     primitive.ObjectID
	OrderNumber string
	Order       *models.Order
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	Deps
	now func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Pricer == nil:
		return nil, fmt.Errorf("cart pricer required")
	case deps.Buyers == nil:
		return nil, fmt.Errorf("buyer loader required")
	case deps.Stock == nil:
		return nil, fmt.Errorf("stock keeper required")
	case deps.Numbers == nil:
		return nil, fmt.Errorf("order number source required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case deps.Campaigns == nil:
		return nil, fmt.Errorf("campaign usage counter required")
	case deps.Users == nil:
		return nil, fmt.Errorf("user order recorder required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{Deps: deps, now: time.Now}, nil
}

// Execute turns the caller's cart into a paid order. Inserting the order is
// the commit point: every failure before it undoes stock and payment, and
// every step after it is best effort.
func (s *service) Execute(ctx context.Context, input Input) (result *Result, err error) {
	started := s.now()
	defer func() { s.observe(started, err) }()

	if !input.Identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	ctx = s.Logger.WithCartKey(ctx, input.Identity.Key())

	stored, err := s.Carts.Find(ctx, input.Identity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if stored == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if len(stored.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "cart is empty")
	}

	buyer, err := s.loadBuyer(ctx, input.Identity)
	if err != nil {
		return nil, err
	}

	contact, err := helpers.NormalizeContact(helpers.Contact{
		Shipping: input.ShippingAddress,
		Billing:  input.BillingAddress,
		Method:   input.PaymentMethod,
		Email:    input.GuestEmail,
		Guest:    buyer == nil,
	})
	if err != nil {
		return nil, err
	}
	email := contact.Email
	if buyer != nil {
		email = buyer.Email
	}

	priced, err := s.Pricer.Price(ctx, stored, buyer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price cart")
	}
	if len(priced.Cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "no purchasable items left in cart")
	}
	if adj := priced.Adjustments; adj.LinesChanged() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart changed since it was last viewed").
			WithDetails(map[string]int{"dropped_lines": adj.DroppedLines, "clamped_lines": adj.ClampedLines})
	}

	held, err := s.reserve(ctx, priced.Cart)
	if err != nil {
		return nil, err
	}

	number, err := s.Numbers.Next(ctx)
	if err != nil {
		s.release(ctx, held)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate order number")
	}
	ctx = s.Logger.WithOrderNumber(ctx, number.String())

	now := s.now().UTC()
	order := helpers.BuildOrder(helpers.OrderSnapshot{
		Cart:    priced.Cart,
		User:    input.Identity.UserID,
		Email:   email,
		Contact: contact,
		Notes:   input.Notes,
		At:      now,
	})
	order.ID = primitive.NewObjectID()
	order.OrderNumber = number.String()

	charge, err := s.charge(ctx, order, email)
	if err != nil {
		s.release(ctx, held)
		return nil, err
	}
	markPaid(order, charge, s.now().UTC())

	if err := orders.InsertNumbered(ctx, s.Orders, order, number); err != nil {
		s.Logger.Error(ctx, "order insert failed after payment", err)
		s.void(ctx, charge)
		s.release(ctx, held)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save order")
	}

	ctx = s.Logger.WithOrderNumber(ctx, order.OrderNumber)
	s.afterCommit(context.WithoutCancel(ctx), input.Identity, order)

	ctx = s.Logger.WithField(ctx, "items", helpers.ItemCount(priced.Cart))
	s.Logger.Info(ctx, "order placed")
	return &Result{OrderID: order.ID, OrderNumber: order.OrderNumber, Order: order}, nil
}

func (s *service) loadBuyer(ctx context.Context, identity cart.Identity) (*campaigns.BuyerContext, error) {
	if !identity.IsUser() {
		return nil, nil
	}
	buyer, err := s.Buyers.BuyerContext(ctx, *identity.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}
	if buyer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user account not found")
	}
	return buyer, nil
}

func (s *service) reserve(ctx context.Context, c *models.Cart) (reservation.Held, error) {
	requests := make([]reservation.InventoryReservationRequest, 0, len(c.Items))
	for _, line := range c.Items {
		requests = append(requests, reservation.InventoryReservationRequest{
			ProductID: line.Product,
			SKU:       line.Variant.SKU,
			Qty:       line.Quantity,
		})
	}

	held, err := reservation.ReserveInventory(ctx, s.Stock, requests)
	if err == nil {
		return held, nil
	}

	var shortage *reservation.ShortageError
	if errors.As(err, &shortage) {
		s.Metrics.IncCompensation("release_stock")
		if shortage.ReleaseErr != nil {
			s.Logger.Error(ctx, "failed to release stock after shortage", shortage.ReleaseErr)
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]string{
				"product_id": shortage.Request.ProductID.Hex(),
				"sku":        shortage.Request.SKU,
			})
	}
	s.Logger.Error(ctx, "stock reservation failed", err)
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
}

func (s *service) release(ctx context.Context, held reservation.Held) {
	if len(held) == 0 {
		return
	}
	s.Metrics.IncCompensation("release_stock")
	if err := held.Release(context.WithoutCancel(ctx), s.Stock); err != nil {
		s.Logger.Error(ctx, "failed to release reserved stock", err)
	}
}

func (s *service) charge(ctx context.Context, order *models.Order, email string) (*payments.Charge, error) {
	auth, err := s.Gateway.Authorize(ctx, payments.ChargeRequest{
		Reference: order.ID.Hex(),
		Method:    order.PaymentMethod,
		Amount:    order.Total,
		Email:     email,
	})
	if err != nil {
		if errors.Is(err, payments.ErrDeclined) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment declined")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment failed")
	}

	captured, err := s.Gateway.Capture(ctx, auth)
	if err != nil {
		s.void(ctx, auth)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment capture failed")
	}
	return captured, nil
}

func (s *service) void(ctx context.Context, charge *payments.Charge) {
	s.Metrics.IncCompensation("void_payment")
	if err := s.Gateway.Void(context.WithoutCancel(ctx), charge); err != nil {
		s.Logger.Error(ctx, "failed to void payment", err)
	}
}

func markPaid(order *models.Order, charge *payments.Charge, at time.Time) {
	order.PaymentDetails = models.PaymentDetails{
		Reference:     charge.Reference,
		Provider:      charge.Provider,
		TransactionID: charge.TransactionID,
		Amount:        charge.Amount,
		Status:        charge.Status,
	}
	order.IsPaid = true
	order.PaidAt = &at
	order.Status = enums.OrderStatusProcessing
	order.Timeline = append(order.Timeline, models.TimelineEvent{
		Status:      enums.OrderStatusProcessing,
		Date:        at,
		Description: paymentApprovedDescription,
	})
}

// afterCommit records usage and clears the cart. Failures are logged and
// never undo the order.
func (s *service) afterCommit(ctx context.Context, identity cart.Identity, order *models.Order) {
	var campaignID *primitive.ObjectID
	if order.Campaign != nil {
		id := order.Campaign.ID
		campaignID = &id
		if err := s.Campaigns.IncrementUsage(ctx, id); err != nil {
			s.Logger.Error(ctx, "failed to increment campaign usage", err)
		}
	}

	if order.User != nil {
		if err := s.Users.RecordOrder(ctx, *order.User, order.ID, campaignID); err != nil {
			s.Logger.Error(ctx, "failed to record order on user", err)
		}
	}

	if err := s.Carts.Delete(ctx, identity); err != nil {
		s.Logger.Error(ctx, "failed to clear cart after checkout", err)
	}
}

func (s *service) observe(started time.Time, err error) {
	outcome := "placed"
	if err != nil {
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		outcome = string(code)
		s.Metrics.IncFailure(outcome)
	} else {
		s.Metrics.IncPlaced()
	}
	s.Metrics.ObserveDuration(outcome, s.now().Sub(started))
}

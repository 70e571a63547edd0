package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/pagination"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type store interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Order, int64, error)
	UpdateFulfillment(ctx context.Context, id primitive.ObjectID, change FulfillmentChange) (*models.Order, error)
}

// Actor is the authenticated caller reading or changing orders.
type Actor struct {
	UserID primitive.ObjectID
	Role   enums.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

// ListQuery carries the listing inputs. UserID is honored for administrators
// only; everyone else always sees their own orders.
type ListQuery struct {
	UserID *primitive.ObjectID
	Status *enums.OrderStatus
	Page   pagination.Params
}

// Page is one page of orders.
type Page struct {
	Orders []models.Order
	Meta   pagination.Meta
}

// FulfillmentInput is an administrator's order update. Nil fields are left
// untouched.
type FulfillmentInput struct {
	Status            *enums.OrderStatus
	StatusDescription *string
	ShippingInfo      *models.ShippingInfo
	Notes             *string
}

func (in FulfillmentInput) empty() bool {
	return in.Status == nil && in.StatusDescription == nil && in.ShippingInfo == nil && in.Notes == nil
}

// Service exposes order reads and fulfillment updates.
type Service interface {
	Get(ctx context.Context, actor Actor, ref string) (*models.Order, error)
	List(ctx context.Context, actor Actor, query ListQuery) (*Page, error)
	UpdateFulfillment(ctx context.Context, actor Actor, id primitive.ObjectID, input FulfillmentInput) (*models.Order, error)
}

type service struct {
	repo store
	now  func() time.Time
}

func NewService(repo store) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Get loads an order by id or by order number. Only its owner or an
// administrator may read it.
func (s *service) Get(ctx context.Context, actor Actor, ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}

	var (
		order *models.Order
		err   error
	)
	if id, parseErr := types.ParseID(ref); parseErr == nil {
		order, err = s.repo.FindByID(ctx, id)
	} else {
		order, err = s.repo.FindByNumber(ctx, ref)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	if !actor.IsAdmin() && (order.User == nil || *order.User != actor.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor Actor, query ListQuery) (*Page, error) {
	if actor.UserID.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if query.Status != nil && !query.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	filter := Filter{Status: query.Status}
	if actor.IsAdmin() {
		filter.UserID = query.UserID
	} else {
		owner := actor.UserID
		filter.UserID = &owner
	}

	params := query.Page.Normalize()
	items, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &Page{Orders: items, Meta: pagination.NewMeta(params, total)}, nil
}

// UpdateFulfillment changes status, shipping info or notes. A status change
// appends a timeline entry; delivered also stamps deliveredAt.
func (s *service) UpdateFulfillment(ctx context.Context, actor Actor, id primitive.ObjectID, input FulfillmentInput) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Status != nil && !input.Status.IsFulfillmentTarget() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment status").
			WithDetails(map[string]string{"status": input.Status.String()})
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if current == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	change := FulfillmentChange{ShippingInfo: input.ShippingInfo, Notes: input.Notes}
	if input.Status != nil && *input.Status != current.Status {
		now := s.now().UTC()
		status := *input.Status
		change.Status = &status
		change.Event = &models.TimelineEvent{
			Status:      status,
			Date:        now,
			Description: statusDescription(status, input),
		}
		if status == enums.OrderStatusDelivered {
			change.DeliveredAt = &now
		}
	}

	updated, err := s.repo.UpdateFulfillment(ctx, id, change)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	if updated == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return updated, nil
}

func statusDescription(status enums.OrderStatus, input FulfillmentInput) string {
	if status == enums.OrderStatusShipped && input.ShippingInfo != nil && input.ShippingInfo.TrackingNumber != "" {
		return fmt.Sprintf("Shipped via %s. Tracking number: %s", input.ShippingInfo.Carrier, input.ShippingInfo.TrackingNumber)
	}
	if input.StatusDescription != nil && strings.TrimSpace(*input.StatusDescription) != "" {
		return strings.TrimSpace(*input.StatusDescription)
	}
	return fmt.Sprintf("Status changed to %s", status)
}

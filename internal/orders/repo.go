package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/dovl-commerce/dovl-backend/pkg/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Filter narrows an order listing. Nil fields are not applied.
type Filter struct {
	UserID *primitive.ObjectID
	Status *enums.OrderStatus
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.UserID != nil {
		q["user"] = *f.UserID
	}
	if f.Status != nil {
		q["status"] = *f.Status
	}
	return q
}

// FulfillmentChange is the set of mutable fields an administrator may touch.
type FulfillmentChange struct {
	Status       *enums.OrderStatus
	Event        *models.TimelineEvent
	ShippingInfo *models.ShippingInfo
	Notes        *string
	DeliveredAt  *time.Time
}

// Repository persists orders.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{coll: client.Collection(db.CollectionOrders), now: time.Now}
}

// Insert writes a new order. A duplicate order number surfaces as a
// duplicate key error for the caller to retry with the next number.
func (r *Repository) Insert(ctx context.Context, order *models.Order) error {
	now := r.now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

// CountSince counts orders created at or after since.
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("count orders since %s: %w", since.Format(time.RFC3339), err)
	}
	return n, nil
}

func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"orderNumber": number})
}

// List returns one page of orders, newest first, plus the total match count.
func (r *Repository) List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Order, int64, error) {
	q := filter.query()
	params = params.Normalize()

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(params.Skip()).
		SetLimit(int64(params.Limit))
	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Order{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	return out, total, nil
}

// UpdateFulfillment applies change and returns the updated order, or nil
// when the order does not exist.
func (r *Repository) UpdateFulfillment(ctx context.Context, id primitive.ObjectID, change FulfillmentChange) (*models.Order, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if change.Status != nil {
		set["status"] = *change.Status
	}
	if change.DeliveredAt != nil {
		set["deliveredAt"] = *change.DeliveredAt
	}
	if change.Notes != nil {
		set["notes"] = *change.Notes
	}
	if info := change.ShippingInfo; info != nil {
		if info.Carrier != "" {
			set["shippingInfo.carrier"] = info.Carrier
		}
		if info.TrackingNumber != "" {
			set["shippingInfo.trackingNumber"] = info.TrackingNumber
		}
		if info.TrackingURL != "" {
			set["shippingInfo.trackingUrl"] = info.TrackingURL
		}
		if info.EstimatedDeliveryDate != nil {
			set["shippingInfo.estimatedDeliveryDate"] = *info.EstimatedDeliveryDate
		}
	}

	update := bson.M{"$set": set}
	if change.Event != nil {
		update["$push"] = bson.M{"timeline": *change.Event}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&order); err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update order %s: %w", id.Hex(), err)
	}
	return &order, nil
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	if err := r.coll.FindOne(ctx, filter).Decode(&order); err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

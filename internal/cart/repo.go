package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores one cart document per identity.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewRepository constructs a cart repository bound to the carts collection.
func NewRepository(client *db.Client) *Repository {
	return &Repository{coll: client.Collection(db.CollectionCarts), now: time.Now}
}

// Find returns the cart for identity, or nil when none exists yet.
func (r *Repository) Find(ctx context.Context, identity Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, fmt.Errorf("invalid cart identity")
	}
	var cart models.Cart
	if err := r.coll.FindOne(ctx, identity.filter()).Decode(&cart); err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find cart %s: %w", identity.Key(), err)
	}
	return &cart, nil
}

// Save replaces the whole cart document for identity, creating it if needed.
// A full replace guarantees cleared fields such as the campaign disappear.
func (r *Repository) Save(ctx context.Context, identity Identity, cart *models.Cart) error {
	if !identity.Valid() {
		return fmt.Errorf("invalid cart identity")
	}
	now := r.now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if identity.IsUser() {
		cart.User = identity.UserID
		cart.SessionID = ""
		cart.AnonymousUpdatedAt = nil
	} else {
		cart.User = nil
		cart.SessionID = identity.SessionID
		cart.AnonymousUpdatedAt = &now
	}
	if cart.Items == nil {
		cart.Items = []models.CartLine{}
	}

	opts := options.Replace().SetUpsert(true)
	res, err := r.coll.ReplaceOne(ctx, identity.filter(), cart, opts)
	if err != nil && db.IsDuplicateKey(err) {
		// Another request created the cart between our filter match and insert.
		res, err = r.coll.ReplaceOne(ctx, identity.filter(), cart, opts)
	}
	if err != nil {
		return fmt.Errorf("save cart %s: %w", identity.Key(), err)
	}
	if cart.ID.IsZero() {
		if id, ok := upsertedObjectID(res); ok {
			cart.ID = id
		}
	}
	return nil
}

// Delete removes the cart for identity. Deleting a missing cart is not an error.
func (r *Repository) Delete(ctx context.Context, identity Identity) error {
	if !identity.Valid() {
		return fmt.Errorf("invalid cart identity")
	}
	if _, err := r.coll.DeleteOne(ctx, identity.filter()); err != nil {
		return fmt.Errorf("delete cart %s: %w", identity.Key(), err)
	}
	return nil
}

func upsertedObjectID(res *mongo.UpdateResult) (primitive.ObjectID, bool) {
	if res == nil || res.UpsertedID == nil {
		return primitive.NilObjectID, false
	}
	id, ok := res.UpsertedID.(primitive.ObjectID)
	return id, ok
}

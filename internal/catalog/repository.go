package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Reader is the read-only catalog surface used by cart pricing.
type Reader interface {
	FindActiveProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindActiveProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
}

// StockKeeper mutates variant stock during checkout.
type StockKeeper interface {
	DecrementVariantStock(ctx context.Context, productID primitive.ObjectID, sku string, qty int) (bool, error)
	ReleaseVariantStock(ctx context.Context, productID primitive.ObjectID, sku string, qty int) error
}

// Repository reads products from the products collection.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewRepository builds a catalog repository bound to the shared client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{
		coll: client.Collection(db.CollectionProducts),
		now:  time.Now,
	}
}

// FindActiveProduct returns the product or nil when it is missing or inactive.
func (r *Repository) FindActiveProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&product)
	if err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

// FindActiveProducts loads every active product in ids with a single query.
// Missing or inactive ids are absent from the result.
func (r *Repository) FindActiveProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": uniqueIDs(ids)}, "isActive": true})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		p := product
		out[p.ID] = &p
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

// FetchForDisplay returns an active product and bumps its view counter in the
// same round trip.
func (r *Repository) FetchForDisplay(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "isActive": true},
		bson.M{"$inc": bson.M{"viewCount": 1}},
		opts,
	).Decode(&product)
	if err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

// DecrementVariantStock takes qty units of sku when at least qty are in
// stock. It reports false, without error, when the product is gone or the
// variant no longer has enough stock.
func (r *Repository) DecrementVariantStock(ctx context.Context, productID primitive.ObjectID, sku string, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("decrement quantity must be positive, got %d", qty)
	}

	filter := bson.M{
		"_id":      productID,
		"isActive": true,
		"variants": bson.M{"$elemMatch": bson.M{
			"sku":   sku,
			"stock": bson.M{"$gte": qty},
		}},
	}
	update := bson.M{
		"$inc": bson.M{
			"variants.$.stock": -qty,
			"totalStock":       -qty,
			"salesCount":       qty,
		},
		"$set": bson.M{"updatedAt": r.now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("decrement stock %s/%s: %w", productID.Hex(), sku, err)
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseVariantStock returns qty units to sku. It undoes a prior
// DecrementVariantStock and ignores the active flag.
func (r *Repository) ReleaseVariantStock(ctx context.Context, productID primitive.ObjectID, sku string, qty int) error {
	if qty <= 0 {
		return nil
	}

	filter := bson.M{"_id": productID, "variants.sku": sku}
	update := bson.M{
		"$inc": bson.M{
			"variants.$.stock": qty,
			"totalStock":       qty,
			"salesCount":       -qty,
		},
		"$set": bson.M{"updatedAt": r.now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("release stock %s/%s: %w", productID.Hex(), sku, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("release stock %s/%s: variant not found", productID.Hex(), sku)
	}
	return nil
}

// FindVariant returns the variant carrying sku, or nil.
func FindVariant(product *models.Product, sku string) *models.Variant {
	if product == nil || sku == "" {
		return nil
	}
	for i := range product.Variants {
		if product.Variants[i].SKU == sku {
			return &product.Variants[i]
		}
	}
	return nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

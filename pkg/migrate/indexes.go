package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AnonymousCartTTL bounds how long an untouched anonymous cart survives.
const AnonymousCartTTL = 60 * 24 * time.Hour

// CollectionIndexes groups the index models declared for one collection.
type CollectionIndexes struct {
	Collection string
	Models     []mongo.IndexModel
}

// Indexes returns every index the application relies on. Uniqueness on
// orderNumber backs order number allocation; the partial cart indexes keep
// one cart per identity.
func Indexes() []CollectionIndexes {
	return []CollectionIndexes{
		{
			Collection: db.CollectionCarts,
			Models: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "user", Value: 1}},
					Options: options.Index().
						SetName("carts_user_unique").
						SetUnique(true).
						SetPartialFilterExpression(bson.M{"user": bson.M{"$type": "objectId"}}),
				},
				{
					Keys: bson.D{{Key: "sessionId", Value: 1}},
					Options: options.Index().
						SetName("carts_session_unique").
						SetUnique(true).
						SetPartialFilterExpression(bson.M{"sessionId": bson.M{"$type": "string"}}),
				},
				{
					Keys: bson.D{{Key: "anonymousUpdatedAt", Value: 1}},
					Options: options.Index().
						SetName("carts_anonymous_ttl").
						SetExpireAfterSeconds(int32(AnonymousCartTTL.Seconds())),
				},
			},
		},
		{
			Collection: db.CollectionCampaigns,
			Models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "code", Value: 1}},
					Options: options.Index().SetName("campaigns_code_unique").SetUnique(true),
				},
				{
					Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "endDate", Value: 1}},
					Options: options.Index().SetName("campaigns_active_end"),
				},
			},
		},
		{
			Collection: db.CollectionOrders,
			Models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "orderNumber", Value: 1}},
					Options: options.Index().SetName("orders_number_unique").SetUnique(true),
				},
				{
					Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
					Options: options.Index().SetName("orders_user_created"),
				},
				{
					Keys:    bson.D{{Key: "createdAt", Value: -1}},
					Options: options.Index().SetName("orders_created"),
				},
			},
		},
		{
			Collection: db.CollectionProducts,
			Models: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "variants.sku", Value: 1}},
					Options: options.Index().
						SetName("products_variant_sku_unique").
						SetUnique(true).
						SetPartialFilterExpression(bson.M{"variants.sku": bson.M{"$exists": true}}),
				},
				{
					Keys:    bson.D{{Key: "slug", Value: 1}},
					Options: options.Index().SetName("products_slug"),
				},
				{
					Keys:    bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}},
					Options: options.Index().SetName("products_category_active"),
				},
			},
		},
	}
}

// EnsureIndexes creates every declared index. Existing identical indexes are
// left untouched by the server.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	if database == nil {
		return fmt.Errorf("database is required")
	}
	for _, spec := range Indexes() {
		if len(spec.Models) == 0 {
			continue
		}
		if _, err := database.Collection(spec.Collection).Indexes().CreateMany(ctx, spec.Models); err != nil {
			return fmt.Errorf("creating %s indexes: %w", spec.Collection, err)
		}
	}
	return nil
}

// Status lists the index names present on each managed collection.
func Status(ctx context.Context, database *mongo.Database) (map[string][]string, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	out := make(map[string][]string)
	for _, spec := range Indexes() {
		specs, err := database.Collection(spec.Collection).Indexes().ListSpecifications(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s indexes: %w", spec.Collection, err)
		}
		for _, s := range specs {
			out[spec.Collection] = append(out[spec.Collection], s.Name)
		}
	}
	return out, nil
}

package cart

import (
	"context"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	Find(ctx context.Context, identity Identity) (*models.Cart, error)
	Save(ctx context.Context, identity Identity, cart *models.Cart) error
	Delete(ctx context.Context, identity Identity) error
}

type catalogReader interface {
	FindActiveProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindActiveProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
}

type campaignLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	FindActiveByCode(ctx context.Context, code string) (*models.Campaign, error)
}

package cart

import (
	"context"
	"testing"

	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/db/dbtest"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRepositorySaveFindDelete(t *testing.T) {
	client := dbtest.Mongo(t)
	repo := NewRepository(client)
	ctx := context.Background()
	identity := SessionIdentity(testSession)

	missing, err := repo.Find(ctx, identity)
	require.NoError(t, err)
	assert.Nil(t, missing)

	p := product("19.99", models.Variant{SKU: "S", Stock: 2})
	campaign := percentCampaign("10")
	cart := &models.Cart{
		Items:    []models.CartLine{line(p, "S", 2)},
		Campaign: applied(campaign),
		Subtotal: d("39.98"),
	}
	require.NoError(t, repo.Save(ctx, identity, cart))
	assert.False(t, cart.ID.IsZero())

	found, err := repo.Find(ctx, identity)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, cart.ID, found.ID)
	assert.Equal(t, testSession, found.SessionID)
	assert.Nil(t, found.User)
	assert.NotNil(t, found.AnonymousUpdatedAt)
	assert.True(t, found.Subtotal.Equal(d("39.98")))
	require.NotNil(t, found.Campaign)

	found.Campaign = nil
	require.NoError(t, repo.Save(ctx, identity, found))

	raw := bson.M{}
	require.NoError(t, client.Collection(db.CollectionCarts).FindOne(ctx, bson.M{"sessionId": testSession}).Decode(&raw))
	_, hasCampaign := raw["campaign"]
	assert.False(t, hasCampaign, "replace must drop the cleared campaign")

	count, err := client.Collection(db.CollectionCarts).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repo.Delete(ctx, identity))
	gone, err := repo.Find(ctx, identity)
	require.NoError(t, err)
	assert.Nil(t, gone)
	require.NoError(t, repo.Delete(ctx, identity))
}

func TestRepositoryKeepsUserAndSessionCartsApart(t *testing.T) {
	client := dbtest.Mongo(t)
	repo := NewRepository(client)
	ctx := context.Background()

	userIdentity := UserIdentity(primitive.NewObjectID())
	sessionIdentity := SessionIdentity(testSession)

	require.NoError(t, repo.Save(ctx, userIdentity, &models.Cart{}))
	require.NoError(t, repo.Save(ctx, sessionIdentity, &models.Cart{}))
	require.NoError(t, repo.Save(ctx, UserIdentity(primitive.NewObjectID()), &models.Cart{}))

	userCart, err := repo.Find(ctx, userIdentity)
	require.NoError(t, err)
	require.NotNil(t, userCart)
	assert.Equal(t, *userIdentity.UserID, *userCart.User)
	assert.Empty(t, userCart.SessionID)
	assert.Nil(t, userCart.AnonymousUpdatedAt)

	assert.Error(t, repo.Save(ctx, Identity{}, &models.Cart{}))
}

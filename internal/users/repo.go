package users

import (
	"context"
	"fmt"
	"time"

	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository exposes the account fields pricing and checkout depend on.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewRepository constructs a users repo bound to the shared client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{coll: client.Collection(db.CollectionUsers), now: time.Now}
}

// FindByID loads a user, returning nil when none exists.
func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user %s: %w", id.Hex(), err)
	}
	return &user, nil
}

// BuyerContext summarizes the order and campaign history of a user. Unknown
// users yield nil so campaign checks treat them as anonymous.
func (r *Repository) BuyerContext(ctx context.Context, id primitive.ObjectID) (*campaigns.BuyerContext, error) {
	opts := options.FindOne().SetProjection(bson.M{
		"email":         1,
		"orderHistory":  1,
		"usedCampaigns": 1,
	})
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user); err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load buyer %s: %w", id.Hex(), err)
	}
	return ToBuyerContext(&user), nil
}

// ToBuyerContext maps a user document to the evaluator's view of it.
func ToBuyerContext(user *models.User) *campaigns.BuyerContext {
	if user == nil {
		return nil
	}
	uses := make(map[primitive.ObjectID]int, len(user.UsedCampaigns))
	for _, used := range user.UsedCampaigns {
		uses[used.Campaign] += used.UsageCount
	}
	return &campaigns.BuyerContext{
		UserID:       user.ID,
		Email:        user.Email,
		OrderCount:   len(user.OrderHistory),
		CampaignUses: uses,
	}
}

// RecordOrder appends orderID to the user's history and, when campaignID is
// set, counts one more use of that campaign.
func (r *Repository) RecordOrder(ctx context.Context, userID, orderID primitive.ObjectID, campaignID *primitive.ObjectID) error {
	now := r.now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$push": bson.M{"orderHistory": orderID},
			"$set":  bson.M{"updatedAt": now},
		},
	)
	if err != nil {
		return fmt.Errorf("record order for user %s: %w", userID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("record order for user %s: user not found", userID.Hex())
	}

	if campaignID == nil {
		return nil
	}
	return r.incrementCampaignUse(ctx, userID, *campaignID)
}

func (r *Repository) incrementCampaignUse(ctx context.Context, userID, campaignID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "usedCampaigns.campaign": campaignID},
		bson.M{"$inc": bson.M{"usedCampaigns.$.usageCount": 1}},
	)
	if err != nil {
		return fmt.Errorf("increment campaign use: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "usedCampaigns.campaign": bson.M{"$ne": campaignID}},
		bson.M{"$push": bson.M{"usedCampaigns": models.CampaignUsage{Campaign: campaignID, UsageCount: 1}}},
	)
	if err != nil {
		return fmt.Errorf("add campaign use: %w", err)
	}
	return nil
}

package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateCode is returned by Insert when another campaign holds the code.
var ErrDuplicateCode = errors.New("campaign code already in use")

// Repository stores campaigns and their usage counters.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{coll: client.Collection(db.CollectionCampaigns), now: time.Now}
}

// NormalizeCode trims and upper-cases a user-entered campaign code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FindByID returns nil, nil when the campaign does not exist.
func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByCode looks a campaign up regardless of its active flag.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Campaign, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"code": normalized})
}

// FindActiveByCode only returns campaigns flagged active.
func (r *Repository) FindActiveByCode(ctx context.Context, code string) (*models.Campaign, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"code": normalized, "isActive": true})
}

// IncrementUsage bumps the global usage counter by one.
func (r *Repository) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"usageCount": 1},
			"$set": bson.M{"updatedAt": r.now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("increment campaign usage %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("increment campaign usage %s: campaign not found", id.Hex())
	}
	return nil
}

// ListActive returns active campaigns whose window contains now, soonest
// ending first.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]models.Campaign, error) {
	filter := bson.M{
		"isActive":  true,
		"startDate": bson.M{"$lte": now},
		"endDate":   bson.M{"$gte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "endDate", Value: 1}, {Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Campaign{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode campaigns: %w", err)
	}
	return out, nil
}

// Insert stores a new campaign with a normalized code and a zero usage count.
func (r *Repository) Insert(ctx context.Context, campaign *models.Campaign) error {
	now := r.now().UTC()
	if campaign.ID.IsZero() {
		campaign.ID = primitive.NewObjectID()
	}
	campaign.Code = NormalizeCode(campaign.Code)
	campaign.UsageCount = 0
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, campaign); err != nil {
		if db.IsDuplicateKey(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert campaign %s: %w", campaign.Code, err)
	}
	return nil
}

// Update sets the patched fields and returns the stored document, or nil when
// the campaign does not exist.
func (r *Repository) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.Campaign, error) {
	set := patch.fields()
	set["updatedAt"] = r.now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Campaign
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update campaign %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

// Delete reports whether a campaign was removed.
func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete campaign %s: %w", id.Hex(), err)
	}
	return res.DeletedCount > 0, nil
}

func (p Patch) fields() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.DiscountType != nil {
		set["discountType"] = *p.DiscountType
	}
	if p.DiscountValue != nil {
		set["discountValue"] = *p.DiscountValue
	}
	if p.MinPurchaseAmount != nil {
		set["minPurchaseAmount"] = *p.MinPurchaseAmount
	}
	if p.MaxDiscount != nil {
		set["maxDiscount"] = *p.MaxDiscount
	}
	if p.MaxUses != nil {
		set["maxUses"] = *p.MaxUses
	}
	if p.UsagePerCustomer != nil {
		set["usagePerCustomer"] = *p.UsagePerCustomer
	}
	if p.ApplicableTo != nil {
		set["applicableTo"] = *p.ApplicableTo
	}
	if p.Categories != nil {
		set["categories"] = *p.Categories
	}
	if p.Products != nil {
		set["products"] = *p.Products
	}
	if p.ExcludedCategories != nil {
		set["excludedCategories"] = *p.ExcludedCategories
	}
	if p.ExcludedProducts != nil {
		set["excludedProducts"] = *p.ExcludedProducts
	}
	if p.ForNewCustomers != nil {
		set["forNewCustomers"] = *p.ForNewCustomers
	}
	if p.ShowInStore != nil {
		set["showInStore"] = *p.ShowInStore
	}
	if p.StartDate != nil {
		set["startDate"] = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		set["endDate"] = p.EndDate.UTC()
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	return set
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.coll.FindOne(ctx, filter).Decode(&campaign); err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return &campaign, nil
}

package cart

import (
	"context"
	"testing"

	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSession = "0f8fad5b-d9cb-469f-a165-70867728950e"

type serviceFixture struct {
	svc      Service
	repo     *memRepo
	catalog  *stubCatalog
	campaign *stubCampaigns
}

func newServiceFixture(t *testing.T, buyers campaigns.BuyerLoader, products []*models.Product, camps ...*models.Campaign) serviceFixture {
	t.Helper()
	repo := newMemRepo()
	cat := newStubCatalog(products...)
	stubCamps := newStubCampaigns(camps...)
	engine := newTestEngine(cat, stubCamps, repo)
	if buyers == nil {
		buyers = stubBuyers{}
	}
	svc, err := NewService(repo, engine, cat, stubCamps, buyers)
	require.NoError(t, err)
	return serviceFixture{svc: svc, repo: repo, catalog: cat, campaign: stubCamps}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestServiceGetCartCreatesEmptyCart(t *testing.T) {
	f := newServiceFixture(t, nil, nil)
	identity := SessionIdentity(testSession)

	priced, err := f.svc.GetCart(context.Background(), identity)
	require.NoError(t, err)
	assert.Empty(t, priced.Cart.Items)
	assert.True(t, priced.Cart.Total.IsZero())

	stored, err := f.repo.Find(context.Background(), identity)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestServiceAddLineMergesSameVariant(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 5})
	f := newServiceFixture(t, nil, []*models.Product{p})
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 2})
	require.NoError(t, err)
	priced, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 1})
	require.NoError(t, err)

	require.Len(t, priced.Cart.Items, 1)
	assert.Equal(t, 3, priced.Cart.Items[0].Quantity)
	assertDecimal(t, "354", priced.Cart.Total, "total")
}

func TestServiceAddLineRejectsOverStock(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 3})
	f := newServiceFixture(t, nil, []*models.Product{p})
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 4})
	requireCode(t, err, pkgerrors.CodeInvalidState)

	_, err = f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 2})
	requireCode(t, err, pkgerrors.CodeInvalidState)
	assert.Equal(t, map[string]int{"available": 1}, pkgerrors.As(err).Details())
}

func TestServiceAddLineUnknownProductOrVariant(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 3})
	f := newServiceFixture(t, nil, []*models.Product{p})
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: primitive.NewObjectID(), SKU: "TEE-M", Quantity: 1})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-XXL", Quantity: 1})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 0})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestServiceAddLineFailsLoudlyWhenSaveFails(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 3})
	f := newServiceFixture(t, nil, []*models.Product{p})
	f.repo.saveErr = errStore

	_, err := f.svc.AddLine(context.Background(), SessionIdentity(testSession), AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 1})
	requireCode(t, err, pkgerrors.CodeInternal)
}

func TestServiceUpdateLineQuantity(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 4})
	f := newServiceFixture(t, nil, []*models.Product{p})
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	priced, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 1})
	require.NoError(t, err)
	itemID := priced.Cart.Items[0].ID

	priced, err = f.svc.UpdateLineQuantity(ctx, identity, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, priced.Cart.Items[0].Quantity)

	_, err = f.svc.UpdateLineQuantity(ctx, identity, itemID, 5)
	requireCode(t, err, pkgerrors.CodeInvalidState)

	_, err = f.svc.UpdateLineQuantity(ctx, identity, primitive.NewObjectID(), 1)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.UpdateLineQuantity(ctx, SessionIdentity("00000000-0000-4000-8000-000000000000"), itemID, 1)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceUpdateLineRemovesVanishedVariant(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 4})
	f := newServiceFixture(t, nil, []*models.Product{p})
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	priced, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 1})
	require.NoError(t, err)

	p.IsActive = false
	priced, err = f.svc.UpdateLineQuantity(ctx, identity, priced.Cart.Items[0].ID, 2)
	require.NoError(t, err)
	assert.Empty(t, priced.Cart.Items)
}

func TestServiceRemoveLine(t *testing.T) {
	p := product("100", models.Variant{SKU: "A", Stock: 4}, models.Variant{SKU: "B", Stock: 4})
	f := newServiceFixture(t, nil, []*models.Product{p})
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "A", Quantity: 1})
	require.NoError(t, err)
	priced, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "B", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, priced.Cart.Items, 2)

	priced, err = f.svc.RemoveLine(ctx, identity, priced.Cart.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, priced.Cart.Items, 1)
	assert.Equal(t, "B", priced.Cart.Items[0].Variant.SKU)

	_, err = f.svc.RemoveLine(ctx, identity, primitive.NewObjectID())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceApplyAndRemoveCampaign(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 5})
	campaign := percentCampaign("10")
	f := newServiceFixture(t, nil, []*models.Product{p}, campaign)
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	_, err := f.svc.ApplyCampaign(ctx, identity, "save10")
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 3})
	require.NoError(t, err)

	_, err = f.svc.ApplyCampaign(ctx, identity, "NOPE")
	requireCode(t, err, pkgerrors.CodeNotFound)

	priced, err := f.svc.ApplyCampaign(ctx, identity, " save10 ")
	require.NoError(t, err)
	require.NotNil(t, priced.Cart.Campaign)
	assertDecimal(t, "348.5", priced.Cart.Total, "total")
	assert.Equal(t, 0, campaign.UsageCount, "applying must not count a use")

	priced, err = f.svc.RemoveCampaign(ctx, identity)
	require.NoError(t, err)
	assert.Nil(t, priced.Cart.Campaign)
	assertDecimal(t, "354", priced.Cart.Total, "total")

	stored, err := f.repo.Find(ctx, identity)
	require.NoError(t, err)
	assert.Nil(t, stored.Campaign)
}

func TestServiceApplyCampaignRejectsEmptyCart(t *testing.T) {
	campaign := percentCampaign("10")
	f := newServiceFixture(t, nil, nil, campaign)
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	_, err := f.svc.GetCart(ctx, identity)
	require.NoError(t, err)

	_, err = f.svc.ApplyCampaign(ctx, identity, "SAVE10")
	requireCode(t, err, pkgerrors.CodeInvalidState)
}

func TestServiceApplyCampaignReportsIneligibility(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 5})
	campaign := percentCampaign("10")
	campaign.ForNewCustomers = true
	buyers := stubBuyers{buyer: &campaigns.BuyerContext{OrderCount: 3}}
	f := newServiceFixture(t, buyers, []*models.Product{p}, campaign)
	identity := UserIdentity(primitive.NewObjectID())
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.ApplyCampaign(ctx, identity, "SAVE10")
	requireCode(t, err, pkgerrors.CodeInvalidState)
	assert.Equal(t, map[string]string{"reason": "new_customers_only"}, pkgerrors.As(err).Details())

	stored, err := f.repo.Find(ctx, identity)
	require.NoError(t, err)
	assert.Nil(t, stored.Campaign, "rejected campaign must not be saved")
}

func TestServiceSilentlyDropsCampaignOnRead(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 5})
	campaign := percentCampaign("10")
	f := newServiceFixture(t, nil, []*models.Product{p}, campaign)
	identity := SessionIdentity(testSession)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, identity, AddLineInput{ProductID: p.ID, SKU: "TEE-M", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.ApplyCampaign(ctx, identity, "SAVE10")
	require.NoError(t, err)

	campaign.IsActive = false
	priced, err := f.svc.GetCart(ctx, identity)
	require.NoError(t, err)
	assert.Nil(t, priced.Cart.Campaign)
	assert.True(t, priced.Adjustments.CampaignCleared)
}

func TestServiceGetCartPropagatesBuyerFailure(t *testing.T) {
	f := newServiceFixture(t, stubBuyers{err: errStore}, nil)

	_, err := f.svc.GetCart(context.Background(), UserIdentity(primitive.NewObjectID()))
	requireCode(t, err, pkgerrors.CodeDependency)
}

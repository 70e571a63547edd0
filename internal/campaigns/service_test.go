package campaigns

import (
	"context"
	"errors"
	"testing"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubCodeFinder struct {
	campaign *models.Campaign
	err      error
	lastCode string
}

func (s *stubCodeFinder) FindByCode(_ context.Context, code string) (*models.Campaign, error) {
	s.lastCode = code
	return s.campaign, s.err
}

type stubLister struct {
	list []models.Campaign
	err  error
}

func (s stubLister) ListActive(context.Context) ([]models.Campaign, error) {
	return s.list, s.err
}

type stubBuyers struct {
	buyer *BuyerContext
	calls int
}

func (s *stubBuyers) BuyerContext(context.Context, primitive.ObjectID) (*BuyerContext, error) {
	s.calls++
	return s.buyer, nil
}

func newTestService(t *testing.T, finder *stubCodeFinder, buyers *stubBuyers) Service {
	t.Helper()
	svc, err := NewService(finder, stubLister{}, buyers, NewEvaluator(fixedClock))
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, stubLister{}, &stubBuyers{}, NewEvaluator(nil))
	assert.Error(t, err)
	_, err = NewService(&stubCodeFinder{}, stubLister{}, &stubBuyers{}, nil)
	assert.Error(t, err)
}

func TestServiceCheckReturnsDiscount(t *testing.T) {
	campaign := baseCampaign()
	campaign.DiscountValue = dec("50")
	campaign.MaxDiscount = decPtr("100")
	finder := &stubCodeFinder{campaign: campaign}
	svc := newTestService(t, finder, &stubBuyers{})

	res, err := svc.Check(context.Background(), "  summer10 ", dec("1000"), nil)
	require.NoError(t, err)
	assert.Equal(t, campaign.ID, res.Campaign.ID)
	assert.True(t, res.DiscountAmount.Equal(dec("100")))
	assert.Equal(t, "  summer10 ", finder.lastCode)
}

func TestServiceCheckUnknownCode(t *testing.T) {
	svc := newTestService(t, &stubCodeFinder{}, &stubBuyers{})

	_, err := svc.Check(context.Background(), "NOPE", dec("100"), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceCheckIneligibleCarriesReason(t *testing.T) {
	campaign := baseCampaign()
	campaign.ForNewCustomers = true
	buyers := &stubBuyers{buyer: &BuyerContext{OrderCount: 1}}
	svc := newTestService(t, &stubCodeFinder{campaign: campaign}, buyers)

	userID := primitive.NewObjectID()
	_, err := svc.Check(context.Background(), "SUMMER10", dec("100"), &userID)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidState, typed.Code())
	assert.Equal(t, map[string]string{"reason": "new_customers_only"}, typed.Details())
	assert.Equal(t, 1, buyers.calls)
}

func TestServiceCheckValidatesInput(t *testing.T) {
	svc := newTestService(t, &stubCodeFinder{}, &stubBuyers{})

	_, err := svc.Check(context.Background(), " ", dec("100"), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Check(context.Background(), "CODE", decimal.NewFromInt(-1), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceCheckWrapsStoreFailure(t *testing.T) {
	svc := newTestService(t, &stubCodeFinder{err: errors.New("socket closed")}, &stubBuyers{})

	_, err := svc.Check(context.Background(), "CODE", dec("100"), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

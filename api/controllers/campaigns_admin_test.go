package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
)

type stubCampaignAdmin struct {
	campaign *models.Campaign
	err      error

	draft   campaigns.Draft
	patch   campaigns.Patch
	id      primitive.ObjectID
	deleted bool
}

func (s *stubCampaignAdmin) Create(_ context.Context, draft campaigns.Draft) (*models.Campaign, error) {
	s.draft = draft
	return s.campaign, s.err
}

func (s *stubCampaignAdmin) Get(_ context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	s.id = id
	return s.campaign, s.err
}

func (s *stubCampaignAdmin) Update(_ context.Context, id primitive.ObjectID, patch campaigns.Patch) (*models.Campaign, error) {
	s.id, s.patch = id, patch
	return s.campaign, s.err
}

func (s *stubCampaignAdmin) Delete(_ context.Context, id primitive.ObjectID) error {
	s.id = id
	s.deleted = s.err == nil
	return s.err
}

func serveCampaignAdmin(svc campaigns.AdminService, method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/campaigns/{campaignId}", CampaignDetail(svc, nil))
	r.Post("/campaigns", CampaignCreate(svc, nil))
	r.Put("/campaigns/{campaignId}", CampaignUpdate(svc, nil))
	r.Delete("/campaigns/{campaignId}", CampaignDelete(svc, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(method, path, strings.NewReader(body)))
	return resp
}

func TestCampaignCreate(t *testing.T) {
	c := springCampaign()
	c.UsagePerCustomer = 1
	svc := &stubCampaignAdmin{campaign: &c}
	category := primitive.NewObjectID()

	body := `{"name":"Spring","code":"spring10","discount_type":"percentage","discount_value":10,
		"max_discount":"50","categories":["` + category.Hex() + `"],"applicable_to":"specific_categories",
		"start_date":"2025-03-01T00:00:00Z","end_date":"2025-03-31T00:00:00Z"}`
	resp := serveCampaignAdmin(svc, http.MethodPost, "/campaigns", body)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "spring10", svc.draft.Code)
	assert.Equal(t, enums.CampaignScopeSpecificCategories, svc.draft.ApplicableTo)
	assert.Equal(t, []primitive.ObjectID{category}, svc.draft.Categories)
	require.NotNil(t, svc.draft.MaxDiscount)
	assert.Equal(t, "50", svc.draft.MaxDiscount.String())
	assert.Nil(t, svc.draft.IsActive)

	var envelope struct {
		Data campaignDetailResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "SPRING10", envelope.Data.Code)
	assert.Equal(t, 1, envelope.Data.UsagePerCustomer)
	assert.True(t, envelope.Data.IsActive)
	assert.Equal(t, []string{}, envelope.Data.Products)
}

func TestCampaignCreateRejectsBadInput(t *testing.T) {
	svc := &stubCampaignAdmin{}
	resp := serveCampaignAdmin(svc, http.MethodPost, "/campaigns", `{"name":"Spring"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	body := `{"name":"Spring","discount_type":"percentage","discount_value":10,"products":["nope"],
		"start_date":"2025-03-01T00:00:00Z","end_date":"2025-03-31T00:00:00Z"}`
	resp = serveCampaignAdmin(svc, http.MethodPost, "/campaigns", body)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	svc.err = pkgerrors.New(pkgerrors.CodeConflict, "campaign code already in use")
	body = `{"name":"Spring","code":"SPRING10","discount_type":"percentage","discount_value":10,
		"start_date":"2025-03-01T00:00:00Z","end_date":"2025-03-31T00:00:00Z"}`
	resp = serveCampaignAdmin(svc, http.MethodPost, "/campaigns", body)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestCampaignDetail(t *testing.T) {
	c := springCampaign()
	svc := &stubCampaignAdmin{campaign: &c}

	resp := serveCampaignAdmin(svc, http.MethodGet, "/campaigns/"+c.ID.Hex(), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, c.ID, svc.id)
	assert.Contains(t, resp.Body.String(), `"usage_count":0`)

	assert.Equal(t, http.StatusBadRequest, serveCampaignAdmin(svc, http.MethodGet, "/campaigns/nope", "").Code)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	assert.Equal(t, http.StatusNotFound, serveCampaignAdmin(svc, http.MethodGet, "/campaigns/"+c.ID.Hex(), "").Code)
}

func TestCampaignUpdate(t *testing.T) {
	c := springCampaign()
	svc := &stubCampaignAdmin{campaign: &c}

	resp := serveCampaignAdmin(svc, http.MethodPut, "/campaigns/"+c.ID.Hex(), `{"is_active":false,"excluded_products":[]}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.patch.IsActive)
	assert.False(t, *svc.patch.IsActive)
	require.NotNil(t, svc.patch.ExcludedProducts)
	assert.Empty(t, *svc.patch.ExcludedProducts)
	assert.Nil(t, svc.patch.Name)
	assert.Nil(t, svc.patch.Products)

	resp = serveCampaignAdmin(svc, http.MethodPut, "/campaigns/"+c.ID.Hex(), `{"code":"NEWCODE"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCampaignDelete(t *testing.T) {
	id := primitive.NewObjectID()
	svc := &stubCampaignAdmin{}

	resp := serveCampaignAdmin(svc, http.MethodDelete, "/campaigns/"+id.Hex(), "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.String())
	assert.True(t, svc.deleted)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	resp = serveCampaignAdmin(svc, http.MethodDelete, "/campaigns/"+id.Hex(), "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCampaignAdminUnavailable(t *testing.T) {
	resp := serveCampaignAdmin(nil, http.MethodDelete, "/campaigns/"+primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

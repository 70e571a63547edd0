package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/internal/cart"
	"github.com/dovl-commerce/dovl-backend/internal/catalog"
	"github.com/dovl-commerce/dovl-backend/internal/checkout"
	"github.com/dovl-commerce/dovl-backend/internal/orders"
	pkgAuth "github.com/dovl-commerce/dovl-backend/pkg/auth"
	"github.com/dovl-commerce/dovl-backend/pkg/config"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/dovl-commerce/dovl-backend/pkg/metrics"
	"github.com/dovl-commerce/dovl-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCart struct{}

func (stubCart) priced(identity cart.Identity) *cart.Priced {
	return &cart.Priced{Cart: &models.Cart{User: identity.UserID, SessionID: identity.SessionID}}
}

func (s stubCart) GetCart(ctx context.Context, identity cart.Identity) (*cart.Priced, error) {
	return s.priced(identity), nil
}

func (s stubCart) AddLine(ctx context.Context, identity cart.Identity, input cart.AddLineInput) (*cart.Priced, error) {
	return s.priced(identity), nil
}

func (s stubCart) UpdateLineQuantity(ctx context.Context, identity cart.Identity, itemID primitive.ObjectID, quantity int) (*cart.Priced, error) {
	return s.priced(identity), nil
}

func (s stubCart) RemoveLine(ctx context.Context, identity cart.Identity, itemID primitive.ObjectID) (*cart.Priced, error) {
	return s.priced(identity), nil
}

func (s stubCart) ApplyCampaign(ctx context.Context, identity cart.Identity, code string) (*cart.Priced, error) {
	return s.priced(identity), nil
}

func (s stubCart) RemoveCampaign(ctx context.Context, identity cart.Identity) (*cart.Priced, error) {
	return s.priced(identity), nil
}

type stubCampaigns struct{}

func (stubCampaigns) Check(ctx context.Context, code string, subtotal decimal.Decimal, userID *primitive.ObjectID) (*campaigns.CheckResult, error) {
	return &campaigns.CheckResult{Campaign: &models.Campaign{Code: code}, DiscountAmount: decimal.NewFromInt(10)}, nil
}

func (stubCampaigns) ListActive(ctx context.Context) ([]models.Campaign, error) {
	return nil, nil
}

type stubCampaignAdmin struct{}

func (stubCampaignAdmin) Create(ctx context.Context, draft campaigns.Draft) (*models.Campaign, error) {
	return &models.Campaign{ID: primitive.NewObjectID(), Name: draft.Name, Code: campaigns.NormalizeCode(draft.Code)}, nil
}

func (stubCampaignAdmin) Get(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	return &models.Campaign{ID: id, Name: "Spring", Code: "SPRING10"}, nil
}

func (stubCampaignAdmin) Update(ctx context.Context, id primitive.ObjectID, patch campaigns.Patch) (*models.Campaign, error) {
	return &models.Campaign{ID: id, Name: "Spring", Code: "SPRING10"}, nil
}

func (stubCampaignAdmin) Delete(ctx context.Context, id primitive.ObjectID) error {
	return nil
}

type countingCheckout struct{ calls int }

func (c *countingCheckout) Execute(ctx context.Context, input checkout.Input) (*checkout.Result, error) {
	c.calls++
	return &checkout.Result{OrderID: primitive.NewObjectID(), OrderNumber: "DOVL-250310-0001"}, nil
}

type stubOrders struct{}

func (stubOrders) Get(ctx context.Context, actor orders.Actor, ref string) (*models.Order, error) {
	return &models.Order{ID: primitive.NewObjectID(), OrderNumber: ref, User: &actor.UserID}, nil
}

func (stubOrders) List(ctx context.Context, actor orders.Actor, query orders.ListQuery) (*orders.Page, error) {
	return &orders.Page{}, nil
}

func (stubOrders) UpdateFulfillment(ctx context.Context, actor orders.Actor, id primitive.ObjectID, input orders.FulfillmentInput) (*models.Order, error) {
	return &models.Order{ID: id, Status: enums.OrderStatusShipped}, nil
}

type harness struct {
	handler  http.Handler
	checkout *countingCheckout
	cfg      *config.Config
}

func newHarness(t *testing.T) harness {
	t.Helper()

	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	cfg := &config.Config{
		App:       config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT:       config.JWTConfig{Secret: "secret", Issuer: "dovl", ExpirationMinutes: 60},
		Cart:      config.CartConfig{SessionCookieName: "cartSessionId", SessionTTL: 720 * time.Hour},
		Orders:    config.OrdersConfig{IdempotencyTTL: time.Hour},
		RateLimit: config.RateLimitConfig{CampaignWindow: time.Minute, CampaignLimit: 2},
	}

	reg := prometheus.NewRegistry()
	metrics.NewCheckoutMetrics(reg).IncPlaced()

	co := &countingCheckout{}
	h := NewRouter(
		cfg,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		stubPinger{},
		redis.Wrap(raw),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		(*catalog.Repository)(nil),
		stubCampaigns{},
		stubCampaignAdmin{},
		cart.NewResolver(),
		stubCart{},
		co,
		stubOrders{},
	)
	return harness{handler: h, checkout: co, cfg: cfg}
}

func (h harness) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:4000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

func (h harness) bearer(t *testing.T, role enums.Role) map[string]string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: primitive.NewObjectID(),
		Email:  "a@b.co",
		Role:   role,
	})
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	live := h.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, live.Code)
	assert.NotEmpty(t, live.Header().Get("X-Request-Id"))

	ready := h.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)

	m := h.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "checkout_orders_placed_total")
}

func TestCartRouteMintsSessionCookie(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "cartSessionId", cookies[0].Name)

	signedIn := h.do(t, http.MethodGet, "/api/v1/cart", "", h.bearer(t, enums.RoleCustomer))
	require.Equal(t, http.StatusOK, signedIn.Code)
	assert.Empty(t, signedIn.Result().Cookies())
}

func TestOrderRoutesRequireAuth(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/v1/orders", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/orders", "", h.bearer(t, enums.RoleCustomer)).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/orders/DOVL-250310-0001", "", h.bearer(t, enums.RoleCustomer)).Code)

	path := "/api/v1/admin/orders/" + primitive.NewObjectID().Hex()
	body := `{"status":"shipped"}`
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodPut, path, body, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodPut, path, body, h.bearer(t, enums.RoleCustomer)).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPut, path, body, h.bearer(t, enums.RoleAdmin)).Code)
}

func TestCheckoutReplaysWithIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	headers := map[string]string{
		"Idempotency-Key": "order-1",
		"Cookie":          "cartSessionId=3f1c7c1e-6a5b-4d8e-9f0a-1b2c3d4e5f60",
	}
	body := `{"shipping_address":{},"payment_method":"credit_card","email":"guest@example.com"}`

	first := h.do(t, http.MethodPost, "/api/v1/orders", body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := h.do(t, http.MethodPost, "/api/v1/orders", body, headers)
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, 1, h.checkout.calls)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestCampaignCheckIsRateLimited(t *testing.T) {
	h := newHarness(t)
	headers := map[string]string{"Cookie": "cartSessionId=3f1c7c1e-6a5b-4d8e-9f0a-1b2c3d4e5f60"}

	var codes []int
	for i := 0; i < 3; i++ {
		resp := h.do(t, http.MethodPost, "/api/v1/campaigns/check?cartTotal=100", `{"code":"SPRING10"}`, headers)
		codes = append(codes, resp.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Listing is not throttled.
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/campaigns", "", headers).Code)
}

func TestCampaignAdminRoutesRequireAdmin(t *testing.T) {
	h := newHarness(t)
	body := `{"name":"Spring","code":"spring10","discount_type":"percentage","discount_value":10,` +
		`"start_date":"2025-03-01T00:00:00Z","end_date":"2025-03-31T00:00:00Z"}`

	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodPost, "/api/v1/admin/campaigns", body, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodPost, "/api/v1/admin/campaigns", body, h.bearer(t, enums.RoleCustomer)).Code)
	created := h.do(t, http.MethodPost, "/api/v1/admin/campaigns", body, h.bearer(t, enums.RoleAdmin))
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.Contains(t, created.Body.String(), `"code":"SPRING10"`)

	path := "/api/v1/admin/campaigns/" + primitive.NewObjectID().Hex()
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodDelete, path, "", h.bearer(t, enums.RoleCustomer)).Code)
	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, path, "", h.bearer(t, enums.RoleAdmin)).Code)

	// Campaign detail is public.
	detail := h.do(t, http.MethodGet, "/api/v1/campaigns/"+primitive.NewObjectID().Hex(), "", nil)
	assert.Equal(t, http.StatusOK, detail.Code)
}

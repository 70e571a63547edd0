package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dovl-commerce/dovl-backend/api/controllers"
	cartcontrollers "github.com/dovl-commerce/dovl-backend/api/controllers/cart"
	ordercontrollers "github.com/dovl-commerce/dovl-backend/api/controllers/orders"
	"github.com/dovl-commerce/dovl-backend/api/middleware"
	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/internal/cart"
	"github.com/dovl-commerce/dovl-backend/internal/catalog"
	checkoutsvc "github.com/dovl-commerce/dovl-backend/internal/checkout"
	"github.com/dovl-commerce/dovl-backend/internal/orders"
	"github.com/dovl-commerce/dovl-backend/pkg/config"
	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/dovl-commerce/dovl-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	catalogRepo *catalog.Repository,
	campaignService campaigns.Service,
	campaignAdmin campaigns.AdminService,
	cartResolver *cart.Resolver,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	campaignPolicy := middleware.NewRateLimitPolicy(
		"campaign",
		cfg.RateLimit.CampaignWindow,
		cfg.RateLimit.CampaignLimit,
	)
	campaignLimit := middleware.RateLimit(campaignPolicy, redisClient, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/{productId}", controllers.ProductDetail(catalogRepo, logg))

		// Storefront routes accept anonymous shoppers keyed by the cart
		// session cookie.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.CartSession(cartResolver, cfg.Cart, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(cartService, logg))
				r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
				r.Put("/items", cartcontrollers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(cartService, logg))
				r.With(campaignLimit).Post("/campaign", cartcontrollers.CartApplyCampaign(cartService, logg))
				r.Delete("/campaign", cartcontrollers.CartRemoveCampaign(cartService, logg))
			})

			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", controllers.CampaignList(campaignService, logg))
				r.With(campaignLimit).Post("/check", controllers.CampaignCheck(campaignService, logg))
				r.Get("/{campaignId}", controllers.CampaignDetail(campaignAdmin, logg))
			})

			r.With(middleware.Idempotency(redisClient, cfg.Orders.IdempotencyTTL, logg)).
				Post("/orders", ordercontrollers.Checkout(checkoutService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/orders", ordercontrollers.List(ordersService, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Detail(ordersService, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
				r.Put("/orders/{orderId}", ordercontrollers.AdminUpdate(ordersService, logg))
				r.Post("/campaigns", controllers.CampaignCreate(campaignAdmin, logg))
				r.Put("/campaigns/{campaignId}", controllers.CampaignUpdate(campaignAdmin, logg))
				r.Delete("/campaigns/{campaignId}", controllers.CampaignDelete(campaignAdmin, logg))
			})
		})
	})

	return r
}

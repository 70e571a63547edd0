package middleware

import (
	"net/http"

	"github.com/dovl-commerce/dovl-backend/internal/cart"
	"github.com/dovl-commerce/dovl-backend/pkg/config"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
)

// CartSession resolves the cart identity for the request. It must run after
// OptionalAuth. A freshly minted anonymous token is written back as a cookie
// before the handler runs.
func CartSession(resolver *cart.Resolver, cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cfg.SessionCookieName); err == nil {
				token = c.Value
			}

			res := resolver.Resolve(UserIDFromContext(r.Context()), token)
			if res.Minted {
				http.SetCookie(w, sessionCookie(cfg, res.Identity.SessionID))
			}

			ctx := WithCartIdentity(r.Context(), res.Identity)
			if logg != nil {
				ctx = logg.WithCartKey(ctx, res.Identity.Key())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionCookie(cfg config.CartConfig, token string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

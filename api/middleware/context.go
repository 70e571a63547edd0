package middleware

import (
	"context"

	"github.com/dovl-commerce/dovl-backend/internal/cart"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxEmail        contextKey = "email"
	ctxCartIdentity contextKey = "cart_identity"
)

// UserIDFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserIDFromContext(ctx context.Context) *primitive.ObjectID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUserID).(primitive.ObjectID); ok && !v.IsZero() {
		return &v
	}
	return nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

// CartIdentityFromContext returns the identity chosen by CartSession.
func CartIdentityFromContext(ctx context.Context) (cart.Identity, bool) {
	if ctx == nil {
		return cart.Identity{}, false
	}
	v, ok := ctx.Value(ctxCartIdentity).(cart.Identity)
	return v, ok
}

// WithActor injects the authenticated caller into the context.
func WithActor(ctx context.Context, userID primitive.ObjectID, role enums.Role, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxEmail, email)
}

// WithCartIdentity injects the resolved cart identity into the context.
func WithCartIdentity(ctx context.Context, identity cart.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartIdentity, identity)
}

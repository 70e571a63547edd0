package cart

import (
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity keys a cart by exactly one of an owning user or an anonymous
// session token.
type Identity struct {
	UserID    *primitive.ObjectID
	SessionID string
}

func UserIdentity(id primitive.ObjectID) Identity {
	return Identity{UserID: &id}
}

func SessionIdentity(token string) Identity {
	return Identity{SessionID: token}
}

// IsUser reports whether the cart belongs to an authenticated user.
func (i Identity) IsUser() bool {
	return i.UserID != nil && !i.UserID.IsZero()
}

// Valid reports whether exactly one key is set.
func (i Identity) Valid() bool {
	return i.IsUser() != (i.SessionID != "")
}

// Key renders the identity for logs and rate-limit scopes.
func (i Identity) Key() string {
	if i.IsUser() {
		return "user:" + i.UserID.Hex()
	}
	return "session:" + i.SessionID
}

func (i Identity) filter() bson.M {
	if i.IsUser() {
		return bson.M{"user": *i.UserID}
	}
	return bson.M{"sessionId": i.SessionID}
}

// Resolution is the identity chosen for a request. Minted is true when a new
// session token was issued and must be handed back to the client.
type Resolution struct {
	Identity Identity
	Minted   bool
}

// Resolver maps request credentials to a cart identity.
type Resolver struct {
	newToken func() string
}

func NewResolver() *Resolver {
	return &Resolver{newToken: uuid.NewString}
}

// Resolve prefers the authenticated user, then a well-formed client token, and
// otherwise mints a fresh token. The anonymous cart of a user who signs in is
// left untouched.
func (r *Resolver) Resolve(userID *primitive.ObjectID, sessionToken string) Resolution {
	if userID != nil && !userID.IsZero() {
		return Resolution{Identity: UserIdentity(*userID)}
	}
	if token, ok := normalizeToken(sessionToken); ok {
		return Resolution{Identity: SessionIdentity(token)}
	}
	return Resolution{Identity: SessionIdentity(r.newToken()), Minted: true}
}

func normalizeToken(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

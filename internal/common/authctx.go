package common

import (
	"context"
	"strconv"
)

type ctxKey string

const identityKey ctxKey = "auth/identity"

// Identity describes the authenticated operator of a request.
type Identity struct {
	UserID   int64
	Username string
	Admin    bool
}

// Subject returns the identifier used in tokens and logs.
func (i Identity) Subject() string {
	return strconv.FormatInt(i.UserID, 10)
}

// WithIdentity stores the authenticated identity on the provided context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the authenticated identity from the context if present.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, false
	}
	return id, true
}

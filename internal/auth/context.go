package auth

import (
	"context"

	"github.com/debemdeboas/inkwell/internal/model"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID is the key for the authenticated user in request context
	ContextKeyUserID ContextKey = "userID"

	contextKeyState ContextKey = "authState"
)

// ContextWithUser returns a new context carrying the authenticated user
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, user)
}

// UserFromContext extracts the authenticated user from context
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(ContextKeyUserID).(*model.User)
	return user, ok && user != nil
}

// ContextWithState attaches the browser session's auth state.
func ContextWithState(ctx context.Context, state State) context.Context {
	return context.WithValue(ctx, contextKeyState, state)
}

func StateFromContext(ctx context.Context) (State, bool) {
	state, ok := ctx.Value(contextKeyState).(State)
	return state, ok
}

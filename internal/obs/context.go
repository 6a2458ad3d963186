package obs

import (
	"context"
	"sync"
)

type routePatternKey struct{}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}

// Operator is the authenticated back-office user a request ran as.
type Operator struct {
	UserID   int64
	Username string
}

// requestNotes is filled in by inner middleware and read back by outer
// middleware once the handler chain has returned.
type requestNotes struct {
	mu       sync.Mutex
	operator *Operator
}

type requestNotesKey struct{}

// WithRequestNotes attaches an empty notes holder to ctx unless one is
// already present.
func WithRequestNotes(ctx context.Context) context.Context {
	if _, ok := ctx.Value(requestNotesKey{}).(*requestNotes); ok {
		return ctx
	}
	return context.WithValue(ctx, requestNotesKey{}, &requestNotes{})
}

// NoteOperator records the operator on the request's notes, if any.
func NoteOperator(ctx context.Context, op Operator) {
	notes, ok := ctx.Value(requestNotesKey{}).(*requestNotes)
	if !ok {
		return
	}
	notes.mu.Lock()
	notes.operator = &op
	notes.mu.Unlock()
}

// NotedOperator returns the operator recorded by NoteOperator.
func NotedOperator(ctx context.Context) (Operator, bool) {
	notes, ok := ctx.Value(requestNotesKey{}).(*requestNotes)
	if !ok {
		return Operator{}, false
	}
	notes.mu.Lock()
	defer notes.mu.Unlock()
	if notes.operator == nil {
		return Operator{}, false
	}
	return *notes.operator, true
}

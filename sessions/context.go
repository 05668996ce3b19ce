package sessions

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying store
func NewContext(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

// FromContext returns the store attached by NewContext, if any
func FromContext(ctx context.Context) (*Store, bool) {
	store, ok := ctx.Value(contextKey{}).(*Store)
	return store, ok && store != nil
}

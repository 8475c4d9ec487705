package deferred

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying d.
func NewContext(ctx context.Context, d Deferrer) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

// FromContext returns the Deferrer stored in ctx.
func FromContext(ctx context.Context) (Deferrer, bool) {
	d, ok := ctx.Value(ctxKey{}).(Deferrer)
	return d, ok && d != nil
}

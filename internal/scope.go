package internal

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/edgekit/pkg/deferred"
	"github.com/dmitrymomot/edgekit/pkg/logger"
)

type carrierKey struct{}

// WithCarrier establishes the event scope. The carrier also becomes the
// context's deferred hook, so job and task managers defer into the event.
func WithCarrier(ctx context.Context, c *Carrier) context.Context {
	ctx = context.WithValue(ctx, carrierKey{}, c)
	return deferred.NewContext(ctx, c)
}

// CarrierFrom returns the carrier of the enclosing scope.
func CarrierFrom(ctx context.Context) (*Carrier, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(carrierKey{}).(*Carrier)
	return c, ok && c != nil
}

// Scope is CarrierFrom for accessors: outside a scope it returns a
// ContextError naming accessor.
func Scope(ctx context.Context, accessor string) (*Carrier, error) {
	c, ok := CarrierFrom(ctx)
	if !ok {
		return nil, &ContextError{Accessor: accessor}
	}
	return c, nil
}

// EventExtractor adds the event kind to log records emitted inside a scope.
func EventExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		c, ok := CarrierFrom(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("event", string(c.event)), true
	}
}

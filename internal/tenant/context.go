// context.go carries the resolved tenant through a request.  The routing
// middleware stores it once; handlers read it with FromContext.
package tenant

import "context"

// ctxKey is unexported to avoid context-key collisions.
type ctxKey struct{}

// WithRecord returns a context carrying rec.
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, ctxKey{}, rec)
}

// FromContext returns the tenant stored by the routing middleware, or nil
// for platform traffic.
func FromContext(ctx context.Context) *Record {
	rec, _ := ctx.Value(ctxKey{}).(*Record)
	return rec
}

package negotiate

import (
	"context"
	"net/http"

	"github.com/yanizio/adept-domain/internal/domain"
)

type ctxKey struct{}

// WithRecord stores the negotiated record on ctx.
func WithRecord(ctx context.Context, rec *domain.Record) context.Context {
	return context.WithValue(ctx, ctxKey{}, rec)
}

// FromContext returns the negotiated record or nil.
func FromContext(ctx context.Context) *domain.Record {
	rec, _ := ctx.Value(ctxKey{}).(*domain.Record)
	return rec
}

// Middleware negotiates once per request and stores the record on the
// request context.  Unknown hosts get 404; store failures get 503.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec, err := r.Negotiate(req.Context(), req)
		if err != nil {
			r.log.Errorw("negotiation failed", "host", req.Host, "err", err)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		if rec == nil {
			http.Error(w, "unknown host", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, req.WithContext(WithRecord(req.Context(), rec)))
	})
}

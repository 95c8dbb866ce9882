// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/negotiate"
)

// DefaultFunc returns the current default record.  domain.Service.Default
// satisfies it.
type DefaultFunc func(ctx context.Context) (*domain.Record, error)

// Redirect runs after negotiate.Resolver.Middleware and sends the client
// to the right place for the negotiated record:
//
//   - A disabled record redirects to the same URI on the default record.
//   - When enforceScheme is set, an https record reached over plain HTTP
//     redirects to its https URL, unless the host is "localhost".
//
// The status code is the record's redirect code, or 302 when unset.
// Anything else calls the next handler unchanged.
func Redirect(def DefaultFunc, enforceScheme bool, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.S()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := negotiate.FromContext(r.Context())
			if rec == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !rec.Status && def != nil {
				target, err := def(r.Context())
				if err != nil {
					log.Errorw("default domain lookup failed", "host", r.Host, "err", err)
				}
				if target != nil && target.ID != rec.ID {
					http.Redirect(w, r, target.URL(r.URL.RequestURI()), redirectCode(rec))
					return
				}
			}

			if enforceScheme && rec.IsHTTPS() && !isTLS(r) && negotiate.StripPort(strings.ToLower(r.Host)) != "localhost" {
				http.Redirect(w, r, rec.URL(r.URL.RequestURI()), redirectCode(rec))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func redirectCode(rec *domain.Record) int {
	if code, ok := rec.RedirectCode(); ok {
		return code
	}
	return domain.DefaultRedirectCode
}

// isTLS trusts X-Forwarded-Proto so a TLS-terminating proxy does not cause
// a redirect loop.
func isTLS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

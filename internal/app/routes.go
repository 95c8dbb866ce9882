package app

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/adept-domain/internal/admin"
	"github.com/yanizio/adept-domain/internal/middleware"
	"github.com/yanizio/adept-domain/internal/negotiate"
)

// Handler builds the root router:
//
//	/metrics                  Prometheus
//	/admin/structure/domain   admin API
//	everything else           negotiated site request
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Mount(admin.Prefix, admin.New(a.Service, a.Config.HTTP.BasePath, a.Log.Named("admin")).Routes())

	r.Group(func(site chi.Router) {
		site.Use(
			a.Resolver.Middleware,
			middleware.Redirect(a.Service.Default, a.Config.HTTP.ForceHTTPS, a.Log),
			middleware.Security,
		)
		site.HandleFunc("/*", a.serveSite)
	})
	return r
}

// serveSite answers with the negotiated record.  Real sites mount their
// own handlers behind the same middleware chain.
func (a *App) serveSite(w http.ResponseWriter, r *http.Request) {
	rec := negotiate.FromContext(r.Context())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"domain":   rec.ID,
		"name":     rec.Name,
		"hostname": rec.Hostname,
		"path":     rec.Path(a.Config.HTTP.BasePath),
		"url":      rec.URL(r.URL.RequestURI()),
	})
}

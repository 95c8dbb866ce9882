// internal/admin/admin.go
//
// JSON admin API for domain records.
//
// Context
// -------
// `Handler` exposes domain.Service under /admin/structure/domain.  Every
// mutating route answers with the affected record and the operator notice
// built by internal/message, so a refusal such as "already the default"
// is a 200 with a warning notice rather than an HTTP error.
//
//	GET  /                    list
//	POST /                    create
//	GET  /{domain}            get
//	POST /edit/{domain}       set properties from a JSON object, all or none
//	POST /default/{domain}    promote
//	POST /enable/{domain}     enable
//	POST /disable/{domain}    disable
//	POST /delete/{domain}     delete
//	GET  /health/{domain}     live or cached health status
//	POST /repair              repair the default invariant
//
// Notes
// -----
//   - Hard errors map to 404, 409, 422, or 500 (logged).
//   - Access control is the caller's job; mount behind whatever guards
//     the rest of /admin.
//   - Oxford commas, two spaces after periods.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/message"
)

// Prefix is where cmd/web mounts Routes.
const Prefix = "/admin/structure/domain"

// Handler serves the admin API.
type Handler struct {
	svc      *domain.Service
	basePath string
	log      *zap.SugaredLogger
}

// New wires a Handler.  basePath feeds Record.Path in responses.
func New(svc *domain.Service, basePath string, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.S()
	}
	return &Handler{svc: svc, basePath: basePath, log: log}
}

// Routes builds the router mounted at Prefix.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/repair", h.repair)
	r.Get("/{domain}", h.get)
	r.Post("/edit/{domain}", h.edit)
	r.Post("/default/{domain}", h.action(h.svc.Promote))
	r.Post("/enable/{domain}", h.action(h.svc.Enable))
	r.Post("/disable/{domain}", h.action(h.svc.Disable))
	r.Post("/delete/{domain}", h.action(h.svc.Delete))
	r.Get("/health/{domain}", h.health)
	return r
}

//
// Response shapes
//

type recordView struct {
	*domain.Record
	Path   string `json:"path"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

type resultBody struct {
	Domain  *recordView      `json:"domain,omitempty"`
	Demoted string           `json:"demoted,omitempty"`
	Notices []message.Notice `json:"notices"`
}

func (h *Handler) view(r *http.Request, rec *domain.Record) *recordView {
	if rec == nil {
		return nil
	}
	v := &recordView{
		Record: rec,
		Path:   rec.Path(h.basePath),
		URL:    rec.URL(r.URL.RequestURI()),
	}
	if active, err := h.svc.IsActive(r.Context(), rec, r); err == nil {
		v.Active = active
	}
	return v
}

//
// Handlers
//

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]*recordView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, h.view(r, rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"domains": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r, rec))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var d domain.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, resultBody{Notices: []message.Notice{message.Error(err)}})
		return
	}
	res, err := h.svc.Create(r.Context(), d, isSecure(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, res)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "domain")

	var props map[string]string
	if err := json.NewDecoder(r.Body).Decode(&props); err != nil {
		writeJSON(w, http.StatusBadRequest, resultBody{Notices: []message.Notice{message.Error(err)}})
		return
	}
	results, err := h.svc.SetProperties(r.Context(), id, props)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var (
		msgs message.Messenger
		last domain.Result
	)
	for _, res := range results {
		msgs.Add(message.For(res))
		last = res
	}
	if last.Record == nil {
		rec, err := h.svc.Get(r.Context(), id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		last.Record = rec
	}
	writeJSON(w, http.StatusOK, resultBody{Domain: h.view(r, last.Record), Notices: orEmpty(msgs.All())})
}

func (h *Handler) action(op func(ctx context.Context, id string) (domain.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := op(r.Context(), chi.URLParam(r, "domain"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.respond(w, r, http.StatusOK, res)
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	code, err := h.svc.Health(r.Context(), rec)
	if err != nil {
		h.log.Warnw("health check failed", "domain", rec.ID, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"domain":  rec.ID,
			"code":    0,
			"notices": []message.Notice{message.Error(err)},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"domain": rec.ID, "code": code})
}

func (h *Handler) repair(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Repair(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"report":  rep,
		"notices": []message.Notice{message.ForRepair(rep)},
	})
}

//
// Helpers
//

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, code int, res domain.Result) {
	body := resultBody{
		Domain:  h.view(r, res.Record),
		Notices: []message.Notice{message.For(res)},
	}
	if res.Demoted != nil {
		body.Demoted = res.Demoted.ID
	}
	writeJSON(w, code, body)
}

// fail maps service errors onto HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrHostnameTaken), errors.Is(err, domain.ErrExists):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrInvalid):
		code = http.StatusUnprocessableEntity
	default:
		h.log.Errorw("admin request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, code, resultBody{Notices: []message.Notice{message.Error(err)}})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func orEmpty(n []message.Notice) []message.Notice {
	if n == nil {
		return []message.Notice{}
	}
	return n
}

package middleware

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/negotiate"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, rec *domain.Record, host, uri string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, uri, nil)
	req.Host = host
	if rec != nil {
		req = req.WithContext(negotiate.WithRecord(req.Context(), rec))
	}
	if mutate != nil {
		mutate(req)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRedirect(t *testing.T) {
	def := &domain.Record{ID: "main", Hostname: "main.test", Scheme: "https", Status: true, IsDefault: true}
	defaultFn := func(context.Context) (*domain.Record, error) { return def.Clone(), nil }
	h := Redirect(defaultFn, true, zap.NewNop().Sugar())(ok)

	secure := func() *domain.Record {
		return &domain.Record{ID: "s", Hostname: "s.test", Scheme: "https", Status: true}
	}
	moved := secure()
	moved.SetRedirect(301)

	cases := []struct {
		name     string
		rec      *domain.Record
		host     string
		mutate   func(*http.Request)
		code     int
		location string
	}{
		{"no record", nil, "x.test", nil, http.StatusNoContent, ""},
		{"http record", &domain.Record{ID: "p", Hostname: "p.test", Scheme: "http", Status: true},
			"p.test", nil, http.StatusNoContent, ""},
		{"https over http defaults to 302", secure(), "s.test", nil,
			http.StatusFound, "https://s.test/a?b=c"},
		{"https uses record code", moved, "s.test", nil,
			http.StatusMovedPermanently, "https://s.test/a?b=c"},
		{"already tls", secure(), "s.test", func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			http.StatusNoContent, ""},
		{"proxy tls", secure(), "s.test", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") },
			http.StatusNoContent, ""},
		{"localhost exempt", &domain.Record{ID: "l", Hostname: "localhost:8080", Scheme: "https", Status: true},
			"localhost:8080", nil, http.StatusNoContent, ""},
		{"disabled goes to default", &domain.Record{ID: "off", Hostname: "off.test", Scheme: "http"},
			"off.test", nil, http.StatusFound, "https://main.test/a?b=c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(h, tc.rec, tc.host, "/a?b=c", tc.mutate)
			if rr.Code != tc.code {
				t.Fatalf("code = %d, want %d", rr.Code, tc.code)
			}
			if got := rr.Header().Get("Location"); got != tc.location {
				t.Fatalf("location = %q, want %q", got, tc.location)
			}
		})
	}
}

func TestRedirect_DisabledDefaultServes(t *testing.T) {
	def := &domain.Record{ID: "main", Hostname: "main.test", Scheme: "http", IsDefault: true}
	h := Redirect(func(context.Context) (*domain.Record, error) { return def.Clone(), nil }, true, nil)(ok)

	if rr := serve(h, def.Clone(), "main.test", "/", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("code = %d", rr.Code)
	}
}

func TestSecurity_HSTSOnlyForHTTPS(t *testing.T) {
	h := Security(ok)

	rr := serve(h, &domain.Record{Scheme: "https"}, "s.test", "/", nil)
	if rr.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("https record missing HSTS")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("missing X-Frame-Options")
	}

	rr = serve(h, &domain.Record{Scheme: "http"}, "p.test", "/", nil)
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("http record got HSTS")
	}
}

func TestRedirect_SchemeNotEnforced(t *testing.T) {
	h := Redirect(nil, false, nil)(ok)
	rec := &domain.Record{ID: "s", Hostname: "s.test", Scheme: "https", Status: true}
	if rr := serve(h, rec, "s.test", "/", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("code = %d", rr.Code)
	}
}

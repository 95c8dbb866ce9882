package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/domain/domaintest"
	"github.com/yanizio/adept-domain/internal/message"
)

type fixture struct {
	store *domaintest.Store
	srv   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := &domaintest.Store{}
	st.Seed(
		&domain.Record{ID: "a_test", DomainID: 1, Name: "A", Hostname: "a.test", Scheme: "http", Status: true, Weight: 1, IsDefault: true},
		&domain.Record{ID: "b_test", DomainID: 2, Name: "B", Hostname: "b.test", Scheme: "https", Status: true, Weight: 2},
	)
	svc := domain.NewService(domain.Deps{
		Store:      st,
		IDs:        &domaintest.Sequence{},
		Validator:  &domaintest.Validator{Code: http.StatusOK},
		Negotiator: &domaintest.Negotiator{Record: &domain.Record{ID: "a_test"}},
		Log:        zap.NewNop().Sugar(),
	})
	r := chi.NewRouter()
	r.Mount(Prefix, New(svc, "/", zap.NewNop().Sugar()).Routes())
	return &fixture{store: st, srv: r}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, Prefix+path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.srv.ServeHTTP(rr, req)

	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: bad JSON %q: %v", method, path, rr.Body.String(), err)
	}
	return rr, out
}

func notice(t *testing.T, body map[string]any) message.Notice {
	t.Helper()
	list, _ := body["notices"].([]any)
	if len(list) == 0 {
		t.Fatalf("no notices in %v", body)
	}
	m := list[0].(map[string]any)
	return message.Notice{Level: message.Level(m["level"].(string)), Text: m["text"].(string)}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	rr, body := f.do(t, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	list := body["domains"].([]any)
	if len(list) != 2 {
		t.Fatalf("domains = %d", len(list))
	}
	first := list[0].(map[string]any)
	if first["id"] != "a_test" || first["path"] != "http://a.test/" || first["active"] != true {
		t.Fatalf("first = %v", first)
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	if rr, _ := f.do(t, http.MethodGet, "/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rr.Code)
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	rr, body := f.do(t, http.MethodPost, "/", `{"name":"C","hostname":"C.test"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("code = %d body=%v", rr.Code, body)
	}
	d := body["domain"].(map[string]any)
	if d["id"] != "c_test" || d["hostname"] != "c.test" || d["is_default"] != false {
		t.Fatalf("domain = %v", d)
	}

	rr, _ = f.do(t, http.MethodPost, "/", `{"name":"dup","hostname":"a.test","id":"other"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate hostname code = %d", rr.Code)
	}

	rr, _ = f.do(t, http.MethodPost, "/", `{"hostname":"d.test"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing name code = %d", rr.Code)
	}

	rr, _ = f.do(t, http.MethodPost, "/", `{`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json code = %d", rr.Code)
	}
}

func TestDefaultEnableDisable(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodPost, "/default/a_test", "")
	if n := notice(t, body); n.Text != "The selected domain is already the default." {
		t.Fatalf("notice = %s", n)
	}

	_, body = f.do(t, http.MethodPost, "/disable/a_test", "")
	if n := notice(t, body); n.Level != message.LevelWarning {
		t.Fatalf("notice = %s", n)
	}

	rr, body := f.do(t, http.MethodPost, "/default/b_test", "")
	if rr.Code != http.StatusOK || body["demoted"] != "a_test" {
		t.Fatalf("promote: code=%d body=%v", rr.Code, body)
	}
	if got := f.store.Defaults(); len(got) != 1 || got[0] != "b_test" {
		t.Fatalf("defaults = %v", got)
	}

	_, body = f.do(t, http.MethodPost, "/disable/a_test", "")
	if n := notice(t, body); n.Text != "a.test has been disabled." {
		t.Fatalf("notice = %s", n)
	}
	_, body = f.do(t, http.MethodPost, "/enable/a_test", "")
	if n := notice(t, body); n.Text != "a.test has been enabled." {
		t.Fatalf("notice = %s", n)
	}
}

func TestEdit(t *testing.T) {
	f := newFixture(t)

	rr, body := f.do(t, http.MethodPost, "/edit/b_test", `{"weight":"9","color":"red","id":"x"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	list := body["notices"].([]any)
	if len(list) != 3 {
		t.Fatalf("notices = %v", list)
	}
	d := body["domain"].(map[string]any)
	if d["weight"] != float64(9) {
		t.Fatalf("weight = %v", d["weight"])
	}
}

func TestEdit_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	b, _ := f.store.Load(context.Background(), "b_test")
	b.Extra = domain.Properties{"color": "red"}
	f.store.Seed(b)

	// "color" applies first, then "hostname" collides with a.test.
	rr, _ := f.do(t, http.MethodPost, "/edit/b_test", `{"color":"blue","hostname":"a.test"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("code = %d, want 409", rr.Code)
	}
	b, _ = f.store.Load(context.Background(), "b_test")
	if b.Extra["color"] != "red" || b.Hostname != "b.test" {
		t.Fatalf("partial edit committed: %+v", b)
	}
}

func TestDeleteAndRepair(t *testing.T) {
	f := newFixture(t)

	rr, _ := f.do(t, http.MethodPost, "/delete/a_test", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete code = %d", rr.Code)
	}
	if got := f.store.Defaults(); len(got) != 1 || got[0] != "b_test" {
		t.Fatalf("defaults after delete = %v", got)
	}

	_, body := f.do(t, http.MethodPost, "/repair", "")
	if n := notice(t, body); n.Level != message.LevelStatus {
		t.Fatalf("repair notice = %s", n)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rr, body := f.do(t, http.MethodGet, "/health/b_test", "")
	if rr.Code != http.StatusOK || body["code"] != float64(200) {
		t.Fatalf("code=%d body=%v", rr.Code, body)
	}
}

package domain

import (
	"strings"
	"testing"
)

func TestSchemeName(t *testing.T) {
	cases := []struct {
		stored string
		suffix bool
		want   string
	}{
		{"https", false, "https"},
		{"https", true, "https://"},
		{"http", false, "http"},
		{"", false, "http"},
		{"HTTPS", false, "http"},
		{"ftp", true, "http://"},
		{"https ", false, "http"},
	}
	for _, c := range cases {
		r := &Record{Scheme: c.stored}
		if got := r.SchemeName(c.suffix); got != c.want {
			t.Errorf("SchemeName(%q, %v) = %q, want %q", c.stored, c.suffix, got, c.want)
		}
	}
}

func TestIsHTTPS(t *testing.T) {
	if !(&Record{Scheme: "https"}).IsHTTPS() {
		t.Fatal("https record not reported as https")
	}
	if (&Record{Scheme: "gopher"}).IsHTTPS() {
		t.Fatal("unknown scheme reported as https")
	}
}

func TestPath_CachedUntilInvalidated(t *testing.T) {
	r := &Record{Hostname: "example.com", Scheme: "https"}

	first := r.Path("/")
	if first != "https://example.com/" {
		t.Fatalf("Path = %q", first)
	}
	// A different base path is ignored while the cache is warm.
	if again := r.Path("/sub"); again != first {
		t.Fatalf("Path not cached: %q vs %q", again, first)
	}

	r.InvalidatePath()
	if got := r.Path("sub"); got != "https://example.com/sub/" {
		t.Fatalf("Path after invalidate = %q", got)
	}
}

func TestSetHostname_DropsDerivedValues(t *testing.T) {
	r := &Record{Hostname: "one.example", Scheme: "http"}
	_ = r.Path("/")
	_ = r.URL("/a?b=c")
	r.SetResponse(200)

	r.SetHostname("  Two.Example. ")
	if r.Hostname != "two.example" {
		t.Fatalf("hostname not normalized: %q", r.Hostname)
	}
	if got := r.Path("/"); got != "http://two.example/" {
		t.Fatalf("stale path: %q", got)
	}
	if got := r.URL("/x"); got != "http://two.example/x" {
		t.Fatalf("stale url: %q", got)
	}
	if _, ok := r.Response(); ok {
		t.Fatal("response survived hostname change")
	}
}

func TestURL_EmptyRequestURI(t *testing.T) {
	r := &Record{Hostname: "example.com"}
	if got := r.URL(""); got != "http://example.com/" {
		t.Fatalf("URL = %q", got)
	}
}

func TestClone_DropsCache(t *testing.T) {
	r := &Record{ID: "a", Hostname: "a.test", Extra: Properties{"k": "v"}}
	r.SetRedirect(301)
	r.SetResponse(500)
	_ = r.Path("/")

	c := r.Clone()
	if _, ok := c.Response(); ok {
		t.Fatal("clone kept response")
	}
	c.Extra["k"] = "changed"
	*c.Redirect = 308
	if r.Extra["k"] != "v" || *r.Redirect != 301 {
		t.Fatal("clone shares mutable state with original")
	}
}

func TestRedirect(t *testing.T) {
	r := &Record{}
	if _, ok := r.RedirectCode(); ok {
		t.Fatal("fresh record has redirect")
	}
	r.SetRedirect(0)
	if code, _ := r.RedirectCode(); code != DefaultRedirectCode {
		t.Fatalf("default redirect = %d", code)
	}
	r.SetRedirect(301)
	if code, _ := r.RedirectCode(); code != 301 {
		t.Fatalf("redirect = %d", code)
	}
	r.ClearRedirect()
	if _, ok := r.RedirectCode(); ok {
		t.Fatal("redirect not cleared")
	}
}

func TestLink(t *testing.T) {
	r := &Record{Hostname: "example.com", Scheme: "https"}
	got := string(r.Link("/", false))
	want := `<a href="https://example.com/">example.com</a>`
	if got != want {
		t.Fatalf("Link = %s, want %s", got, want)
	}

	r2 := &Record{Hostname: "example.com"}
	got = string(r2.Link(`/q?a=1&b="x"`, true))
	if !strings.Contains(got, "&amp;b=&#34;x&#34;") {
		t.Fatalf("Link did not escape href: %s", got)
	}
}

func TestLink_LeavesCacheAlone(t *testing.T) {
	r := &Record{Hostname: "example.com", Scheme: "https"}

	_ = r.Link("/elsewhere", false)
	_ = r.Link("/page?x=1", true)
	if got := r.Path("/"); got != "https://example.com/" {
		t.Fatalf("Path after Link = %q", got)
	}
	if got := r.URL("/"); got != "https://example.com/" {
		t.Fatalf("URL after Link = %q", got)
	}

	// A warm cache does not leak into Link either.
	if got := string(r.Link("/other", false)); !strings.Contains(got, `href="https://example.com/other/"`) {
		t.Fatalf("Link = %s", got)
	}
}

func TestMachineName(t *testing.T) {
	cases := map[string]string{
		"example.com":       "example_com",
		"Example.COM:8080":  "example_com_8080",
		"-a--b-":            "a_b",
		"sub.domain.co.uk.": "sub_domain_co_uk",
	}
	for in, want := range cases {
		if got := MachineName(in); got != want {
			t.Errorf("MachineName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAddProperty_FirstWriteWins(t *testing.T) {
	r := &Record{Name: "Example", Hostname: "example.com"}

	if !r.AddProperty("theme", "dark") {
		t.Fatal("first AddProperty refused")
	}
	if r.AddProperty("theme", "light") {
		t.Fatal("second AddProperty overwrote")
	}
	if r.Extra["theme"] != "dark" {
		t.Fatalf("theme = %q", r.Extra["theme"])
	}

	// Column-backed strings are always set.
	if r.AddProperty(FieldName, "Other") || r.Name != "Example" {
		t.Fatal("AddProperty overwrote a set column")
	}

	// redirect starts unset.
	if !r.AddProperty(FieldRedirect, "301") {
		t.Fatal("AddProperty refused unset redirect")
	}
	if code, _ := r.RedirectCode(); code != 301 {
		t.Fatalf("redirect = %d", code)
	}
}

func TestProperties_ScanValue(t *testing.T) {
	var p Properties
	v, err := p.Value()
	if err != nil || v != "{}" {
		t.Fatalf("empty Value = %v, %v", v, err)
	}

	if err := p.Scan([]byte(`{"theme":"dark"}`)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if p["theme"] != "dark" {
		t.Fatalf("scanned = %#v", p)
	}

	if err := p.Scan("{}"); err != nil || p != nil {
		t.Fatalf("Scan({}) = %#v, %v", p, err)
	}
	if err := p.Scan(42); err == nil {
		t.Fatal("Scan(int) succeeded")
	}
}

func TestValidate(t *testing.T) {
	ok := &Record{ID: "example_com", Name: "Example", Hostname: "example.com"}
	if err := Validate(ok); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	withPort := &Record{ID: "local", Name: "Local", Hostname: "localhost:8080"}
	if err := Validate(withPort); err != nil {
		t.Fatalf("host:port rejected: %v", err)
	}

	bad := []*Record{
		{ID: "x", Name: "X", Hostname: "not a host"},
		{ID: "x", Name: "", Hostname: "x.test"},
		{ID: "x", Name: "X", Hostname: "x.test", Redirect: intPtr(200)},
	}
	for i, r := range bad {
		if err := Validate(r); err == nil {
			t.Errorf("case %d: invalid record accepted", i)
		}
	}
}

func intPtr(n int) *int { return &n }

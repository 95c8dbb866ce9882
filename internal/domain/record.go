// internal/domain/record.go
//
// Domain record model.
//
// Context
// -------
// A `Record` maps one hostname to site configuration: scheme, enabled flag,
// sort weight, default flag, and an optional redirect code.  Records are
// persisted by a `Store` (see ports.go) and mutated through `Service`.
//
// Three values are derived and never persisted:
//
//   - path      scheme + hostname + base path.
//   - url       scheme + hostname + current request URI.
//   - response  last observed HTTP health status.
//
// They live in an explicit nullable cache (`derived`) with invalidation
// helpers.  Changing the hostname or scheme drops the whole cache.
//
// Notes
// -----
//   - A Record is request-scoped and not safe for concurrent mutation.
//     Shared caches hand out clones.
//   - Oxford commas, two spaces after periods.
package domain

import (
	"html/template"
	"strings"
	"time"
)

// Scheme values.  Anything other than SchemeHTTPS reads back as SchemeHTTP.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// DefaultRedirectCode is applied by SetRedirect when no code is supplied.
const DefaultRedirectCode = 302

// Record mirrors one row in the `domain_record` table.
type Record struct {
	ID        string     `db:"id"         json:"id"         validate:"required,max=128"`
	DomainID  int64      `db:"domain_id"  json:"domain_id"`
	UUID      string     `db:"uuid"       json:"uuid"       validate:"omitempty,uuid"`
	Name      string     `db:"name"       json:"name"       validate:"required,max=255"`
	Hostname  string     `db:"hostname"   json:"hostname"   validate:"required,max=255,hostname_rfc1123|hostname_port"`
	Status    bool       `db:"status"     json:"status"`
	Weight    int        `db:"weight"     json:"weight"`
	IsDefault bool       `db:"is_default" json:"is_default"`
	Scheme    string     `db:"scheme"     json:"scheme"`
	Redirect  *int       `db:"redirect"   json:"redirect,omitempty" validate:"omitempty,oneof=301 302 303 307 308"`
	Extra     Properties `db:"extra"      json:"extra,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`

	cache derived
}

// derived holds lazily computed values.  A nil pointer means "not computed
// in this process yet".
type derived struct {
	path     *string
	url      *string
	response *int
}

// Clone returns a copy without derived values.  Extra is deep-copied.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.cache = derived{}
	if r.Redirect != nil {
		code := *r.Redirect
		c.Redirect = &code
	}
	c.Extra = r.Extra.clone()
	return &c
}

//
// Scheme
//

// SchemeName normalizes the stored scheme to "http" or "https".  With
// includeSuffix the result carries "://".
func (r *Record) SchemeName(includeSuffix bool) string {
	s := SchemeHTTP
	if r.Scheme == SchemeHTTPS {
		s = SchemeHTTPS
	}
	if includeSuffix {
		s += "://"
	}
	return s
}

// IsHTTPS reports whether the normalized scheme is https.
func (r *Record) IsHTTPS() bool { return r.SchemeName(false) == SchemeHTTPS }

// SetScheme stores s verbatim and drops derived values.
func (r *Record) SetScheme(s string) {
	r.Scheme = s
	r.Invalidate()
}

// SetHostname stores a lower-cased hostname and drops derived values.
func (r *Record) SetHostname(h string) {
	r.Hostname = NormalizeHostname(h)
	r.Invalidate()
}

//
// Derived values
//

// Path returns scheme + hostname + basePath.  The first result is cached
// and later calls ignore basePath until InvalidatePath.
func (r *Record) Path(basePath string) string {
	if r.cache.path == nil {
		p := r.pathFor(basePath)
		r.cache.path = &p
	}
	return *r.cache.path
}

// URL returns scheme + hostname + requestURI.  The first result is cached
// and later calls ignore requestURI until InvalidateURL.
func (r *Record) URL(requestURI string) string {
	if r.cache.url == nil {
		u := r.urlFor(requestURI)
		r.cache.url = &u
	}
	return *r.cache.url
}

func (r *Record) pathFor(basePath string) string {
	return r.SchemeName(true) + r.Hostname + normalizeBasePath(basePath)
}

func (r *Record) urlFor(requestURI string) string {
	if requestURI == "" {
		requestURI = "/"
	}
	return r.SchemeName(true) + r.Hostname + requestURI
}

// Response returns the cached health status and whether one is present.
func (r *Record) Response() (int, bool) {
	if r.cache.response == nil {
		return 0, false
	}
	return *r.cache.response, true
}

// SetResponse caches a health status.  Validators call this.
func (r *Record) SetResponse(code int) { r.cache.response = &code }

func (r *Record) InvalidatePath()     { r.cache.path = nil }
func (r *Record) InvalidateURL()      { r.cache.url = nil }
func (r *Record) InvalidateResponse() { r.cache.response = nil }

// Invalidate drops every derived value.
func (r *Record) Invalidate() { r.cache = derived{} }

// Link renders an absolute anchor with the hostname as its text.  When
// currentPath is true target is a request URI, otherwise a base path.  Link
// never reads or fills the Path and URL caches.
func (r *Record) Link(target string, currentPath bool) template.HTML {
	href := r.pathFor(target)
	if currentPath {
		href = r.urlFor(target)
	}
	return template.HTML(`<a href="` + template.HTMLEscapeString(href) + `">` +
		template.HTMLEscapeString(r.Hostname) + `</a>`)
}

//
// Redirect
//

// RedirectCode returns the redirect status and whether one is set.
func (r *Record) RedirectCode() (int, bool) {
	if r.Redirect == nil {
		return 0, false
	}
	return *r.Redirect, true
}

// SetRedirect stores code, or DefaultRedirectCode when code is zero.
func (r *Record) SetRedirect(code int) {
	if code == 0 {
		code = DefaultRedirectCode
	}
	r.Redirect = &code
}

// ClearRedirect removes the redirect code.
func (r *Record) ClearRedirect() { r.Redirect = nil }

//
// Helpers
//

// NormalizeHostname trims whitespace and a trailing dot, then lower-cases.
func NormalizeHostname(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}

// MachineName converts a hostname into a stable identifier: lower-case
// ASCII letters and digits, every other run collapsed to one underscore.
// "Example.com:8080" becomes "example_com_8080".
func MachineName(hostname string) string {
	var b strings.Builder
	b.Grow(len(hostname))

	lastWasSep := false
	for _, c := range strings.ToLower(hostname) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastWasSep = false
		default:
			if !lastWasSep {
				b.WriteByte('_')
				lastWasSep = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// normalizeBasePath guarantees exactly one leading and one trailing slash.
func normalizeBasePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}

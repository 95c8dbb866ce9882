// internal/negotiate/host.go
//
// Host header helpers.
//
// Context
// -------
// Records may be registered with or without a port ("example.com",
// "localhost:8080"), so a request for "Example.com:8080" is tried as
// "example.com:8080" first and "example.com" second.  The literal host
// "localhost" can be aliased to a real record so a dev instance can
// masquerade as any site without an extra row.
//
// Notes
// -----
//   - No logging here; the caller decides what to log.
package negotiate

import (
	"net"
	"strings"

	"github.com/yanizio/adept-domain/internal/domain"
)

// Candidates returns the lookup keys for a raw Host header, most specific
// first, without duplicates.
func Candidates(rawHost, localhostAlias string, stripWWW bool) []string {
	full := domain.NormalizeHostname(rawHost)
	if full == "" {
		return nil
	}
	bare := StripPort(full)

	out := make([]string, 0, 4)
	add := func(h string) {
		if h == "" {
			return
		}
		for _, seen := range out {
			if seen == h {
				return
			}
		}
		out = append(out, h)
	}

	add(full)
	add(bare)
	if bare == "localhost" && localhostAlias != "" {
		add(domain.NormalizeHostname(localhostAlias))
	}
	if stripWWW && strings.HasPrefix(bare, "www.") {
		add(strings.TrimPrefix(bare, "www."))
	}
	return out
}

// StripPort removes an optional ":port" and IPv6 brackets.
func StripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return domain.NormalizeHostname(h)
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}

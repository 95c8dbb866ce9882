// internal/health/health.go
//
// Live HTTP health probe for domain records.
//
// Context
// -------
// `Checker` implements domain.Validator.  It issues a GET against the
// record's base path (plus an optional probe path) and caches the status
// code on the record with SetResponse.  Redirects are not followed: a 301
// from a record is exactly what an operator wants to see.
//
// A transport failure (DNS, refused, timeout) returns an error and leaves
// the cache empty so the next call probes again.
//
// Notes
// -----
//   - Every probe is counted in domain_health_checks_total{code}; transport
//     failures use code "0".
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/metrics"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// Options tune a Checker.
type Options struct {
	Timeout   time.Duration
	BasePath  string // prefix passed to Record.Path
	ProbePath string // appended to the base path, e.g. "healthz"
	UserAgent string
}

// Checker is safe for concurrent use.
type Checker struct {
	client *http.Client
	opts   Options
	log    *zap.SugaredLogger
}

var _ domain.Validator = (*Checker)(nil)

// New builds a Checker.  A nil client gets a fresh one with opts.Timeout.
func New(client *http.Client, opts Options, log *zap.SugaredLogger) *Checker {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "adept-domain-health/1"
	}
	if log == nil {
		log = zap.S()
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Checker{client: &c, opts: opts, log: log}
}

// Target returns the URL probed for rec.
func (c *Checker) Target(rec *domain.Record) string {
	return rec.Path(c.opts.BasePath) + strings.TrimPrefix(c.opts.ProbePath, "/")
}

// Check probes rec and stores the status code on it.
func (c *Checker) Check(ctx context.Context, rec *domain.Record) (int, error) {
	target := c.Target(rec)

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("health %s: %w", rec.ID, err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.HealthChecksTotal.WithLabelValues("0").Inc()
		c.log.Warnw("health probe failed", "domain", rec.ID, "url", target, "err", err)
		return 0, fmt.Errorf("health %s: %w", rec.ID, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	metrics.HealthChecksTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	c.log.Debugw("health probe",
		"domain", rec.ID,
		"url", target,
		"code", resp.StatusCode,
		"took", time.Since(start),
	)
	rec.SetResponse(resp.StatusCode)
	return resp.StatusCode, nil
}

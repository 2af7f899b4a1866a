// Package probe checks whether the embedded dashboard can actually be framed.
//
// Browsers refuse to render a frame when the target answers with X-Frame-Options or a
// Content-Security-Policy frame-ancestors directive that excludes the embedding page.
// The probe fetches the embed URL once, classifies those headers and caches the result.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"

	"github.com/mrbrightsides/sentinel/internal/page"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultCacheTTL   = 5 * time.Minute
	defaultMaxTries   = 3
	defaultInterval   = 500 * time.Millisecond
	defaultMaxElapsed = 10 * time.Second
	maxDrainBytes     = 64 << 10
	userAgent         = "sentinel-embed-probe/1.0"
)

// Report is the outcome of one probe.
type Report struct {
	URL        string    `json:"url"`
	Embeddable bool      `json:"embeddable"`
	Reason     string    `json:"reason,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
	// Err is a *page.ResourceLoadFailure when the frame is unlikely to display.
	Err error `json:"-"`
}

// Failure returns the load failure carried by the report, if any.
func (r Report) Failure() (*page.ResourceLoadFailure, bool) {
	var failure *page.ResourceLoadFailure
	if errors.As(r.Err, &failure) {
		return failure, true
	}
	return nil, false
}

// Client probes embed URLs with bounded retries and caches reports per URL.
type Client struct {
	http         *http.Client
	publicOrigin string
	ttl          time.Duration
	maxTries     uint
	interval     time.Duration
	maxElapsed   time.Duration
	now          func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
	// gen is bumped by Invalidate so probes started earlier do not repopulate the cache.
	gen      uint64
	inflight singleflight.Group
}

type cacheEntry struct {
	report  Report
	expires time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPublicOrigin sets the origin the page is served from. It is matched against
// 'self' and host-source entries of frame-ancestors.
func WithPublicOrigin(origin string) Option {
	return func(c *Client) {
		c.publicOrigin = normalizeOrigin(origin)
	}
}

// WithCacheTTL sets how long reports are reused.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithRetry bounds the retry loop for transient failures. interval is the first
// backoff delay; later delays grow exponentially.
func WithRetry(maxTries uint, interval, maxElapsed time.Duration) Option {
	return func(c *Client) {
		if maxTries > 0 {
			c.maxTries = maxTries
		}
		if interval > 0 {
			c.interval = interval
		}
		if maxElapsed > 0 {
			c.maxElapsed = maxElapsed
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a probe client. timeout applies to each attempt.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		http:       &http.Client{Timeout: timeout},
		ttl:        defaultCacheTTL,
		maxTries:   defaultMaxTries,
		interval:   defaultInterval,
		maxElapsed: defaultMaxElapsed,
		now:        time.Now,
		cache:      map[string]cacheEntry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check returns a report for rawURL, served from cache when fresh. It never returns an
// error: failures are described by the report.
//
// Concurrent callers share one upstream probe per URL. The probe runs detached from ctx
// and is bounded by the retry budget, so a caller that gives up early still leaves a
// cached report behind for the next one.
func (c *Client) Check(ctx context.Context, rawURL string) Report {
	rawURL = strings.TrimSpace(rawURL)
	if report, ok := c.cached(rawURL); ok {
		return report
	}

	ch := c.inflight.DoChan(rawURL, func() (any, error) {
		if report, ok := c.cached(rawURL); ok {
			return report, nil
		}
		gen := c.generation()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.maxElapsed)
		defer cancel()
		report := c.probe(pctx, rawURL)
		c.store(rawURL, report, gen)
		return report, nil
	})

	select {
	case res := <-ch:
		return res.Val.(Report)
	case <-ctx.Done():
		reason := "check cancelled"
		return Report{
			URL:       rawURL,
			Reason:    reason,
			CheckedAt: c.now().UTC(),
			Err:       &page.ResourceLoadFailure{Resource: page.ResourceEmbed, URL: rawURL, Reason: reason, Err: ctx.Err()},
		}
	}
}

// Invalidate drops any cached report for rawURL. A probe already in flight finishes for
// its current callers but its result is not cached.
func (c *Client) Invalidate(rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	c.mu.Lock()
	delete(c.cache, rawURL)
	c.gen++
	c.mu.Unlock()
	c.inflight.Forget(rawURL)
}

type response struct {
	status int
	header http.Header
}

var errServerStatus = errors.New("probe: server error")

func (c *Client) probe(ctx context.Context, rawURL string) Report {
	report := Report{URL: rawURL, CheckedAt: c.now().UTC()}

	if err := checkProbeURL(rawURL); err != nil {
		report.Reason = "URL is not an absolute http(s) URL"
		report.Err = &page.ResourceLoadFailure{Resource: page.ResourceEmbed, URL: rawURL, Reason: report.Reason, Err: err}
		return report
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	var resp response
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		var err error
		resp, err = c.fetch(ctx, rawURL)
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(c.maxElapsed),
	)
	report.StatusCode = resp.status
	if err != nil {
		report.Reason = "unreachable"
		if resp.status > 0 {
			report.Reason = fmt.Sprintf("HTTP %d", resp.status)
		}
		report.Err = &page.ResourceLoadFailure{Resource: page.ResourceEmbed, URL: rawURL, Reason: report.Reason, Err: err}
		return report
	}

	verdict := Classify(resp.header, rawURL, c.publicOrigin)
	report.Embeddable = verdict.Embeddable
	report.Reason = verdict.Reason
	if !verdict.Embeddable {
		report.Err = &page.ResourceLoadFailure{Resource: page.ResourceEmbed, URL: rawURL, Reason: verdict.Reason}
	}
	return report
}

func checkProbeURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("probe: unsupported URL %q", raw)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Sec-Fetch-Dest", "iframe")

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	out := response{status: resp.StatusCode, header: resp.Header.Clone()}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return out, fmt.Errorf("%w: %d", errServerStatus, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return out, backoff.Permanent(fmt.Errorf("probe: remote status %d", resp.StatusCode))
	}
	return out, nil
}

func (c *Client) cached(rawURL string) (Report, bool) {
	c.mu.RLock()
	entry, ok := c.cache[rawURL]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return Report{}, false
	}
	return entry.report, true
}

func (c *Client) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *Client) store(rawURL string, report Report, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.cache[rawURL] = cacheEntry{report: report, expires: c.now().Add(c.ttl)}
}

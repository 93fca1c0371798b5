package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/identity"
)

// ErrRateLimited marks a URL abandoned after a 429 response.
var ErrRateLimited = errors.New("rate limited")

// Fetcher performs polite page fetches: a jittered cooldown before every
// attempt, identity rotation on 403 and a bounded retry budget. A failed
// URL is reported as an error and never aborts the run.
type Fetcher struct {
	client *http.Client
	cfg    config.FetchConfig
	pool   *identity.Pool
	rand   *rand.Rand
	sleep  func(time.Duration)

	seeded map[string]bool
}

func NewFetcher(client *http.Client, cfg config.FetchConfig, r *rand.Rand) *Fetcher {
	return &Fetcher{
		client: client,
		cfg:    cfg,
		pool:   identity.NewPool(r),
		rand:   r,
		sleep:  time.Sleep,
		seeded: make(map[string]bool),
	}
}

// Fetch retrieves a URL, returning the response body on HTTP 200.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	f.seedCookies(rawURL)

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Rate bound: pause before every attempt, not only after failures.
		f.sleep(f.jitter())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		f.pool.Apply(req)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("network: %w", err)
			log.Printf("fetch: attempt %d/%d failed: %v", attempt, f.cfg.MaxAttempts, err)
			continue
		}

		body, status := drain(resp)
		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusForbidden:
			log.Printf("fetch: 403 from %s, rotating identity", hostOf(rawURL))
			f.pool.Rotate()
			lastErr = fmt.Errorf("blocked: HTTP %d", status)
		case status == http.StatusTooManyRequests:
			if f.cfg.SkipOnRateLimit {
				return nil, fmt.Errorf("%w: %s", ErrRateLimited, rawURL)
			}
			log.Printf("fetch: 429, cooling down %s", f.cfg.RateLimitCooldown)
			f.sleep(f.cfg.RateLimitCooldown)
			lastErr = fmt.Errorf("%w: HTTP %d", ErrRateLimited, status)
		default:
			lastErr = fmt.Errorf("unexpected status: HTTP %d", status)
			log.Printf("fetch: attempt %d/%d: HTTP %d", attempt, f.cfg.MaxAttempts, status)
		}
	}

	return nil, fmt.Errorf("gave up after %d attempts: %w", f.cfg.MaxAttempts, lastErr)
}

func (f *Fetcher) jitter() time.Duration {
	span := f.cfg.MaxDelay - f.cfg.MinDelay
	if span <= 0 {
		return f.cfg.MinDelay
	}
	return f.cfg.MinDelay + time.Duration(f.rand.Int63n(int64(span)))
}

// seedCookies plants session cookies for a portal host once per run.
func (f *Fetcher) seedCookies(rawURL string) {
	if f.client.Jar == nil {
		return
	}
	u, err := url.Parse(rawURL)
	if err != nil || f.seeded[u.Host] {
		return
	}
	f.seeded[u.Host] = true
	f.client.Jar.SetCookies(&url.URL{Scheme: u.Scheme, Host: u.Host}, identity.SessionCookies(f.rand))
}

func drain(resp *http.Response) ([]byte, int) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, resp.StatusCode
	}
	return body, resp.StatusCode
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.Host
	}
	return rawURL
}

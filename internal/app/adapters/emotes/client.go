package emotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"golang.org/x/time/rate"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"tirc/pkg/logger"
)

const (
	maxRetries  = 5
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

var (
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
)

// requester performs GET requests returning JSON. Helix shares one with a
// limiter and auth headers, the public CDNs use it bare.
type requester struct {
	log     logger.Logger
	client  *http.Client
	limiter *rate.Limiter
	header  http.Header
	backoff time.Duration
}

func newRequester(log logger.Logger, client *http.Client) *requester {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &requester{log: log, client: client, backoff: baseBackoff}
}

func (r *requester) getJSON(ctx context.Context, url string, target any) error {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		for k, v := range r.header {
			req.Header[k] = v
		}
		req.Header.Set("Accept", "application/json")

		r.log.Debug("Sending emote request", slog.Int("attempt", attempt), slog.String("url", url))
		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}

		raw, err := io.ReadAll(resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			r.log.Error("Failed to close response body", cerr)
		}
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(raw, target); err != nil {
				r.log.Trace("Undecodable response", slog.String("body", string(raw)))
				return fmt.Errorf("decode response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := calcWaitDuration(resp.Header.Get("Ratelimit-Reset"))
			if wait <= 0 {
				wait = time.Duration(attempt) * r.backoff
			}
			if wait > maxBackoff {
				wait = maxBackoff
			}

			r.log.Warn("Rate limit hit, backing off", slog.Int("attempt", attempt), slog.String("wait", wait.String()))
			if err := sleep(ctx, wait); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(raw), 200))
		}
	}

	return fmt.Errorf("%w after %d attempts", ErrRateLimited, maxRetries)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// calcWaitDuration reads the unix timestamp Helix sends in Ratelimit-Reset.
func calcWaitDuration(resetHeader string) time.Duration {
	if resetHeader == "" {
		return 0
	}

	ts, err := strconv.ParseInt(resetHeader, 10, 64)
	if err != nil {
		return 0
	}

	resetTime := time.Unix(ts, 0)
	now := time.Now()

	if resetTime.Before(now) {
		return 0
	}
	return resetTime.Sub(now)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// sizes fills 1x..4x, each missing size falling back to the next smaller one.
func sizes(urls ...string) map[string]string {
	out := make(map[string]string, 4)
	last := ""
	for i := 0; i < 4; i++ {
		if i < len(urls) && urls[i] != "" {
			last = urls[i]
		}
		out[strconv.Itoa(i+1)+"x"] = last
	}
	return out
}

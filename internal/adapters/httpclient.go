package adapters

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

const (
	defaultHTTPTimeout    = 60 * time.Second
	defaultHTTPRetries    = 3
	defaultHTTPRetryDelay = 200 * time.Millisecond
	maxHTTPRetryDelay     = 5 * time.Second
)

// httpRetryConfig governs the shared GET-with-backoff helper used by both
// the record store (component B) and the fetcher (component F).
type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeoutSec, retries, delayMs int) httpRetryConfig {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(delayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{timeout: timeout, retries: retryCount, baseDelay: baseDelay}
}

// doRequest performs a GET with retry-with-backoff; a context cancellation
// aborts immediately rather than waiting out the remaining attempts.
func doRequest(ctx context.Context, url string, cfg httpRetryConfig) (*http.Response, error) {
	client := &http.Client{Timeout: cfg.timeout}
	var lastErr error
	for attempt := 0; attempt < cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to build request").
				WithCause(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("upstream archive returned " + resp.Status)
		} else {
			return resp, nil
		}
		if attempt < cfg.retries-1 {
			select {
			case <-ctx.Done():
			case <-time.After(httpRetryDelay(attempt, cfg)):
			}
		}
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("archive fetch exhausted retries: " + url).
		WithCause(lastErr)
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(int64(1)<<uint(attempt))
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

// cacheKey derives the on-disk cache filename for a URL, per the
// "uri_to_filename" transform the external protocol names.
func cacheKey(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		url = url[i+3:]
	}
	return strings.ReplaceAll(url, "/", "_")
}

func readCacheFile(dir, key string) ([]byte, bool) {
	if dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(dir, key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func writeCacheFile(dir, key string, data []byte) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cache directory").
			WithCause(err)
	}
	return os.WriteFile(filepath.Join(dir, key), data, 0644)
}

func trimSlash(s string) string {
	return strings.TrimRight(s, "/")
}

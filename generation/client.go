// Package generation issues hardened calls to a hosted text-generation
// endpoint speaking the HuggingFace inference protocol.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/core/netutil"
)

const (
	defaultBaseURL      = "https://api-inference.huggingface.co"
	defaultModel        = "mistralai/Mistral-7B-Instruct-v0.3"
	defaultMaxNewTokens = 300
	defaultTimeout      = 30 * time.Second
	defaultRetries      = 2
	defaultBackoff      = 2 * time.Second

	defaultDialTimeout     = 5 * time.Second
	defaultTLSHandshake    = 5 * time.Second
	defaultIdleConnTimeout = 30 * time.Second
	maxResponseBytes       = 1 << 20
)

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	BaseURL string
	Model   string
	Token   string

	MaxNewTokens int
	// Timeout bounds a single attempt; the total budget is
	// Timeout * (1 + Retries) plus backoff sleeps.
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// Client calls the inference endpoint with timeout, retry, and response
// normalization. It is safe for concurrent use.
type Client struct {
	opts Options
	http *http.Client
}

// NewClient constructs a Client with a transport tuned for the inference API.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxNewTokens <= 0 {
		opts.MaxNewTokens = defaultMaxNewTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     defaultIdleConnTimeout,
		TLSHandshakeTimeout: defaultTLSHandshake,
	}

	return &Client{
		opts: opts,
		http: &http.Client{Transport: transport},
	}
}

// Model reports the configured model identifier.
func (c *Client) Model() string { return c.opts.Model }

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type parameters struct {
	MaxNewTokens int `json:"max_new_tokens"`
}

// Generate sends the prompt and returns the normalized generated text.
// Failures are always reported as *Error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(request{
		Inputs:     prompt,
		Parameters: parameters{MaxNewTokens: c.opts.MaxNewTokens},
	})
	if err != nil {
		return "", &Error{Kind: KindClient, Err: fmt.Errorf("encode request: %w", err)}
	}

	attempts := c.opts.Retries + 1
	var lastErr *Error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, genErr := c.attempt(ctx, body)
		if genErr == nil {
			if attempt > 1 {
				logger.Info(ctx, "gen", "generate.retry.success",
					slog.String("model", c.opts.Model),
					slog.Int("attempt", attempt),
				)
			}
			return text, nil
		}
		lastErr = genErr
		if !genErr.Retryable() || attempt == attempts {
			break
		}
		delay := backoffDelay(c.opts.Backoff, attempt)
		logger.Debug(ctx, "gen", "generate.retry.backoff",
			slog.String("model", c.opts.Model),
			slog.Int("attempt", attempt),
			slog.String("err_kind", string(genErr.Kind)),
			slog.Duration("delay", delay),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", &Error{Kind: KindTimeout, Err: ctx.Err()}
		case <-timer.C:
		}
	}
	return "", lastErr
}

func (c *Client) attempt(ctx context.Context, body []byte) (string, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	url := c.opts.BaseURL + "/models/" + c.opts.Model
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindClient, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || netutil.ShouldRetry(err) {
			return "", &Error{Kind: KindTimeout, Err: err}
		}
		return "", &Error{Kind: KindClient, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &Error{Kind: KindServer, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &Error{Kind: KindRateLimited, Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		return "", &Error{Kind: KindServer, Status: resp.StatusCode}
	case resp.StatusCode >= 400:
		return "", &Error{Kind: KindClient, Status: resp.StatusCode}
	}

	text, ok := normalize(payload)
	if !ok {
		return "", &Error{Kind: KindMalformed, Status: resp.StatusCode}
	}
	return text, nil
}

// normalize accepts the three response shapes the endpoint is known to
// produce: {"generated_text": ...}, [{"generated_text": ...}], or a bare
// JSON string.
func normalize(payload []byte) (string, bool) {
	type generated struct {
		GeneratedText string `json:"generated_text"`
	}

	var obj generated
	if err := json.Unmarshal(payload, &obj); err == nil && obj.GeneratedText != "" {
		return obj.GeneratedText, true
	}

	var list []generated
	if err := json.Unmarshal(payload, &list); err == nil && len(list) > 0 && list[0].GeneratedText != "" {
		return list[0].GeneratedText, true
	}

	var raw string
	if err := json.Unmarshal(payload, &raw); err == nil && strings.TrimSpace(raw) != "" {
		return raw, true
	}

	return "", false
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base << (attempt - 1)
	// Full jitter keeps concurrent users from retrying in lockstep.
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	return delay + jitter
}

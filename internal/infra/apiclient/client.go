// Package apiclient talks to the storefront REST API that owns carts, orders and products.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"example.com/storefront/internal/domain/remote"
)

const maxBody = 4 << 20

type Options struct {
	Timeout time.Duration
	// FailureThreshold consecutive transient failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Logger           *slog.Logger
	Transport        http.RoundTripper
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[response]
	logger  *slog.Logger
}

type response struct {
	status int
	body   []byte
}

func New(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	logger := opts.Logger
	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "storefront-api",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(opts.Transport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

// do sends one request. out may be nil. notFound, when set, is wrapped into the error for 404.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, notFound error) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = b
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	res, err := c.breaker.Execute(func() (response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return response{}, fmt.Errorf("%w: %v", remote.ErrTransient, err)
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return response{}, fmt.Errorf("%w: read body: %v", remote.ErrTransient, err)
		}
		if resp.StatusCode >= 500 {
			return response{}, fmt.Errorf("%w: status=%d body=%s", remote.ErrTransient, resp.StatusCode, strings.TrimSpace(string(b)))
		}
		return response{status: resp.StatusCode, body: b}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %s: %w: %v", method, path, remote.ErrTransient, err)
	}
	if err != nil {
		c.logger.Debug("storefront api call failed", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if res.status == http.StatusNotFound && notFound != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, notFound, remote.ErrRejected)
	}
	if res.status >= 400 {
		return fmt.Errorf("%s %s: %w: status=%d body=%s", method, path, remote.ErrRejected, res.status, strings.TrimSpace(string(res.body)))
	}
	if out == nil || len(res.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w: %v", method, path, remote.ErrRejected, err)
	}
	return nil
}

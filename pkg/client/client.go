// Package client talks to a sphere server: REST calls for managing figures
// and websocket sessions for streaming their frames.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/teslashibe/go-sphere/internal/httpc"
	"github.com/teslashibe/go-sphere/pkg/expression"
	"github.com/teslashibe/go-sphere/pkg/figures"
)

// Client is bound to one server base URL such as http://localhost:8080.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the shared httpc client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger used by sessions.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New parses baseURL. http, https, ws and wss schemes are accepted.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("server url must use http(s) or ws(s), got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url has no host: %q", baseURL)
	}

	c := &Client{base: u, http: httpc.Client, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server URL with an http(s) scheme.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func (c *Client) wsEndpoint(path string) string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// ListFigures returns every figure, oldest first.
func (c *Client) ListFigures(ctx context.Context) ([]figures.Info, error) {
	var out struct {
		Figures []figures.Info `json:"figures"`
	}
	if err := httpc.DoJSON(ctx, c.http, http.MethodGet, c.endpoint("/api/figures"), nil, &out); err != nil {
		return nil, fmt.Errorf("list figures: %w", err)
	}
	return out.Figures, nil
}

// CreateFigure starts a new figure. A zero size uses the server default.
func (c *Client) CreateFigure(ctx context.Context, size float64) (*figures.Detail, error) {
	var in any
	if size > 0 {
		in = map[string]float64{"size": size}
	}
	var out figures.Detail
	if err := httpc.DoJSON(ctx, c.http, http.MethodPost, c.endpoint("/api/figures"), in, &out); err != nil {
		return nil, fmt.Errorf("create figure: %w", err)
	}
	return &out, nil
}

// GetFigure returns a figure's layout and latest frame.
func (c *Client) GetFigure(ctx context.Context, id string) (*figures.Detail, error) {
	var out figures.Detail
	if err := httpc.DoJSON(ctx, c.http, http.MethodGet, c.endpoint("/api/figures/"+url.PathEscape(id)), nil, &out); err != nil {
		return nil, fmt.Errorf("get figure %s: %w", id, err)
	}
	return &out, nil
}

// DeleteFigure stops a figure.
func (c *Client) DeleteFigure(ctx context.Context, id string) error {
	if err := httpc.DoJSON(ctx, c.http, http.MethodDelete, c.endpoint("/api/figures/"+url.PathEscape(id)), nil, nil); err != nil {
		return fmt.Errorf("delete figure %s: %w", id, err)
	}
	return nil
}

// PostSamples pushes one frequency sample set over REST.
func (c *Client) PostSamples(ctx context.Context, id string, values []float64) error {
	in := map[string][]float64{"values": values}
	if err := httpc.DoJSON(ctx, c.http, http.MethodPost, c.endpoint("/api/figures/"+url.PathEscape(id)+"/samples"), in, nil); err != nil {
		return fmt.Errorf("post samples: %w", err)
	}
	return nil
}

// ExpressionConfig returns the server's expression defaults.
func (c *Client) ExpressionConfig(ctx context.Context) (expression.Config, error) {
	var out struct {
		Expression expression.Config `json:"expression"`
	}
	if err := httpc.DoJSON(ctx, c.http, http.MethodGet, c.endpoint("/api/config"), nil, &out); err != nil {
		return expression.Config{}, fmt.Errorf("get config: %w", err)
	}
	return out.Expression, nil
}

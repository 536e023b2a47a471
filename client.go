// Package securitycenter provides a Go client for the Tenable SecurityCenter
// 5.x REST API.
//
// Basic usage:
//
//	sc, err := securitycenter.NewClient(ctx, "sc.example.com",
//	    securitycenter.WithInsecureTLS(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := sc.Login(ctx, "admin", "password"); err != nil {
//	    log.Fatal(err)
//	}
//	defer sc.Logout(context.Background())
//
//	vulns, err := sc.Analysis.Query(ctx, "vulndetails", []securitycenter.Filter{
//	    securitycenter.F("ip", "=", "10.10.0.0/16"),
//	})
package securitycenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tphakala/go-securitycenter/internal/api"
)

// Default configuration values.
const (
	defaultPort    = 443
	defaultScheme  = "https"
	defaultTimeout = 30 * time.Second
)

// insecureWarnOnce guards the process-wide insecure-TLS warning. Warning once
// replaces the original behavior of suppressing per-request warnings for the
// process lifetime; there is no teardown.
var insecureWarnOnce sync.Once

// Client is the SecurityCenter API client.
//
// A Client owns one HTTP session whose header and cookie state is mutated by
// Login and Logout; it is not safe for concurrent use from multiple
// goroutines without external synchronization.
type Client struct {
	// Analysis provides access to the paginated analysis query endpoint.
	Analysis AnalysisService

	transport *api.Transport
	info      SystemInfo
}

// NewClient connects to the SecurityCenter at the given host and verifies it
// by fetching the system status. It returns *ServerNotFoundError when nothing
// answers at the target, and *InvalidServerError when something answers that
// does not look like SecurityCenter.
func NewClient(ctx context.Context, host string, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		port:    defaultPort,
		scheme:  defaultScheme,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if host == "" {
		return nil, ErrNoHost
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.insecureTLS {
		insecureWarnOnce.Do(func() {
			logger.Warn("TLS certificate verification is disabled for SecurityCenter connections")
		})
	}

	transport, err := api.NewTransport(&api.Config{
		BaseURL:      fmt.Sprintf("%s://%s:%d", cfg.scheme, host, cfg.port),
		InsecureTLS:  cfg.insecureTLS,
		Retries:      cfg.retries,
		RetryWaitMin: cfg.retryWaitMin,
		RetryWaitMax: cfg.retryWaitMax,
		Timeout:      cfg.timeout,
		UserAgent:    cfg.userAgent,
		Logger:       logger,
		HTTPClient:   cfg.httpClient,
	})
	if err != nil {
		return nil, err
	}

	client := &Client{
		transport: transport,
	}

	// Initialize services
	client.Analysis = newAnalysisService(transport)

	if err := client.bootstrap(ctx, host); err != nil {
		return nil, err
	}

	return client, nil
}

// bootstrap fetches the system status and records the server identity.
func (c *Client) bootstrap(ctx context.Context, host string) error {
	var env envelope[SystemInfo]
	_, err := c.transport.DoJSON(ctx, &api.Request{
		Method: http.MethodGet,
		Path:   "system",
	}, &env)

	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return &ServerNotFoundError{Host: host, Err: err}
		}
		// Reachable, but the reply is not a SecurityCenter status response.
		return &InvalidServerError{Host: host, Err: err}
	}

	info := env.Response
	if info.Version == "" || info.BuildID == "" || info.LicenseStatus == "" || info.UUID == "" {
		return &InvalidServerError{Host: host}
	}

	c.info = info
	return nil
}

// ServerInfo returns the identity fields captured from the status endpoint at
// construction time.
func (c *Client) ServerInfo() SystemInfo {
	return c.info
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL.String()
}

// Authenticated reports whether a session token is currently held.
func (c *Client) Authenticated() bool {
	return c.transport.Session().Authenticated()
}

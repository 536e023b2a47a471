package securitycenter

import (
	"log/slog"
	"net/http"
	"time"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	port         int
	scheme       string
	insecureTLS  bool
	retries      int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	timeout      time.Duration
	userAgent    string
	logger       *slog.Logger
	httpClient   *http.Client
}

// WithPort sets the SecurityCenter port (default 443).
func WithPort(port int) ClientOption {
	return func(c *clientConfig) {
		c.port = port
	}
}

// WithScheme sets the URL scheme (default "https").
func WithScheme(scheme string) ClientOption {
	return func(c *clientConfig) {
		c.scheme = scheme
	}
}

// WithInsecureTLS disables TLS certificate verification. SecurityCenter is
// commonly deployed with a certificate chain that cannot be validated; this
// option exists for those installs. The client logs a single process-wide
// warning the first time an insecure client is constructed.
func WithInsecureTLS() ClientOption {
	return func(c *clientConfig) {
		c.insecureTLS = true
	}
}

// WithRetries sets how many times the transport retries a failed request
// (default 0). Retries apply uniformly to every request on this client.
func WithRetries(n int) ClientOption {
	return func(c *clientConfig) {
		c.retries = n
	}
}

// WithRetryWait bounds the exponential backoff between retries.
func WithRetryWait(min, max time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.retryWaitMin = min
		c.retryWaitMax = max
	}
}

// WithTimeout sets the per-request timeout, covering all retry attempts.
// Note: This option is ignored when WithHTTPClient is used;
// set the timeout directly on the provided client instead.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithLogger sets the structured logger used for transport retry logging and
// the insecure-TLS warning. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithHTTPClient sets a custom HTTP client, replacing the built-in retrying
// transport. Retry, backoff, timeout and TLS options are ignored with it.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// RequestOption configures individual API requests.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers http.Header
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		headers: make(http.Header),
	}
}

func (r *requestConfig) apply(opts ...RequestOption) {
	for _, opt := range opts {
		opt(r)
	}
}

// WithHeader adds a custom header to a request.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) {
		r.headers.Set(key, value)
	}
}

// WithHeaders adds multiple custom headers to a request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *requestConfig) {
		for k, v := range headers {
			r.headers.Set(k, v)
		}
	}
}

// WithRequestID sets the X-Request-ID header for tracing.
func WithRequestID(id string) RequestOption {
	return WithHeader("X-Request-ID", id)
}

// Package api provides low-level HTTP transport for SecurityCenter REST calls.
//
// All endpoint paths are resolved under the /rest prefix. Every response body
// passes through the error_code check before it is handed back to callers.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/tphakala/go-securitycenter/internal/auth"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	restPrefix = "rest"
)

// Error is an application-level error reported by SecurityCenter as an
// error_code/error_msg JSON body. The root package exposes it as APIError.
type Error struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("securitycenter: API error %d: %s", e.Code, e.Message)
}

// Config carries transport construction parameters. Retry count and backoff
// bounds apply uniformly to every request made through the transport.
type Config struct {
	BaseURL      string
	InsecureTLS  bool
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	UserAgent    string
	Logger       *slog.Logger

	// HTTPClient, when set, replaces the retrying client built from the
	// fields above.
	HTTPClient *http.Client
}

// Transport handles HTTP communication with the SecurityCenter API.
type Transport struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	UserAgent  string

	session *auth.Session
}

// NewTransport creates a Transport with the given configuration.
func NewTransport(cfg *Config) (*Transport, error) {
	u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newRetryingClient(cfg)
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "go-securitycenter/1.0"
	}

	return &Transport{
		BaseURL:    u,
		HTTPClient: httpClient,
		UserAgent:  userAgent,
		session:    &auth.Session{},
	}, nil
}

// newRetryingClient builds the default HTTP client: pooled transport,
// optional TLS verification bypass, and retries with exponential backoff.
func newRetryingClient(cfg *Config) *http.Client {
	tr := cleanhttp.DefaultPooledTransport()
	if cfg.InsecureTLS {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via WithInsecureTLS
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: tr}
	rc.RetryMax = cfg.Retries
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	if cfg.Logger != nil {
		rc.Logger = &leveledLogger{logger: cfg.Logger}
	} else {
		rc.Logger = nil
	}

	client := rc.StandardClient()
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	} else {
		client.Timeout = defaultHTTPTimeout
	}
	return client
}

// Session returns the mutable token state applied to every request.
func (t *Transport) Session() *auth.Session {
	return t.session
}

// ResetSession clears the token and replaces the cookie jar so that no
// credential state survives. Used by logout regardless of the DELETE outcome.
func (t *Transport) ResetSession() {
	t.session.Clear()
	if jar, err := cookiejar.New(nil); err == nil {
		t.HTTPClient.Jar = jar
	}
}

// Request represents an API request.
type Request struct {
	Method  string
	Path    string
	Body    any // marshaled as JSON when RawBody is nil
	Headers http.Header

	// RawBody bypasses JSON marshaling; ContentType must be set with it.
	RawBody     io.Reader
	ContentType string
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Do executes an API request and returns the response after running the
// error_code check on the body.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Limit response body size to prevent memory exhaustion
	limitedReader := io.LimitReader(httpResp.Body, defaultMaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(body)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}

	if err := checkError(body); err != nil {
		return resp, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp, fmt.Errorf("securitycenter: HTTP %d: %s", resp.StatusCode, snippet(body))
	}

	return resp, nil
}

// DoJSON executes a request and unmarshals the JSON response into result.
func (t *Transport) DoJSON(ctx context.Context, req *Request, result any) (*Response, error) {
	resp, err := t.Do(ctx, req)
	if err != nil {
		return resp, err
	}

	if result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return resp, fmt.Errorf("unmarshaling response: %w", err)
		}
	}

	return resp, nil
}

// UploadFile posts r as a multipart form file under the given field name.
func (t *Transport) UploadFile(ctx context.Context, path, field, filename string, r io.Reader, headers http.Header) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("creating multipart field: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("writing multipart payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	return t.Do(ctx, &Request{
		Method:      http.MethodPost,
		Path:        path,
		Headers:     headers,
		RawBody:     &buf,
		ContentType: mw.FormDataContentType(),
	})
}

// checkError applies the SecurityCenter response convention: a JSON body with
// a truthy error_code is an application error. Non-JSON bodies pass through
// unchanged; they are assumed to be non-error payloads such as file downloads.
func checkError(body []byte) error {
	var e Error
	if err := json.Unmarshal(body, &e); err != nil {
		return nil
	}
	if e.Code != 0 {
		return &e
	}
	return nil
}

func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u := t.BaseURL.JoinPath(restPrefix, req.Path)

	var bodyReader io.Reader
	contentType := ""
	switch {
	case req.RawBody != nil:
		bodyReader = req.RawBody
		contentType = req.ContentType
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.UserAgent)

	// Apply the session token, if logged in
	t.session.Apply(httpReq)

	// Apply custom headers
	maps.Copy(httpReq.Header, req.Headers)

	return httpReq, nil
}

// snippet trims a body for inclusion in an error message.
func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// leveledLogger adapts slog to retryablehttp's LeveledLogger interface.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

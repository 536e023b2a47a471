package securitycenter

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tphakala/go-securitycenter/internal/api"
)

// uploadField is the multipart form field SecurityCenter expects uploads in.
const uploadField = "Filedata"

// loginRequest carries credentials to POST /rest/token.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the inner payload of a successful token exchange.
type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token. On success the token is
// sent as the X-SecurityCenter header on every subsequent request made by
// this client.
func (c *Client) Login(ctx context.Context, user, password string, opts ...RequestOption) error {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var env envelope[loginResponse]
	_, err := c.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "token",
		Body:    &loginRequest{Username: user, Password: password},
		Headers: reqCfg.headers,
	}, &env)
	if err != nil {
		return err
	}

	if env.Response.Token == "" {
		return fmt.Errorf("securitycenter: login response missing token")
	}

	c.transport.Session().SetToken(env.Response.Token)
	return nil
}

// Logout invalidates the session token and resets the client's transport
// state. The reset happens unconditionally, so no stale credentials survive
// even when the DELETE fails; that failure is still returned.
func (c *Client) Logout(ctx context.Context, opts ...RequestOption) error {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	defer c.transport.ResetSession()

	_, err := c.transport.Do(ctx, &api.Request{
		Method:  http.MethodDelete,
		Path:    "token",
		Headers: reqCfg.headers,
	})
	return err
}

// Upload sends r to SecurityCenter as a multipart file upload. The response
// payload is caller-specific, so it is returned raw without envelope parsing.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, opts ...RequestOption) (*Response, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := c.transport.UploadFile(ctx, "file/upload", uploadField, filename, r, reqCfg.headers)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Headers:    resp.Headers,
	}, nil
}

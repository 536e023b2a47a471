package securitycenter_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-securitycenter"
)

const systemResponse = `{
	"type": "regular",
	"response": {
		"version": "5.23.1",
		"buildID": "202401151000",
		"licenseStatus": "Valid",
		"uuid": "4f1c7e9a-2b3d-4c5e-8f90-1a2b3c4d5e6f"
	},
	"error_code": 0,
	"error_msg": "",
	"warnings": [],
	"timestamp": 1700000000
}`

// hostPort splits an httptest server URL into client constructor arguments.
func hostPort(t *testing.T, server *httptest.Server) (string, int) {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

// setupTestClient starts a server that answers the bootstrap status call
// itself and routes everything else to handler.
func setupTestClient(t *testing.T, handler http.HandlerFunc, opts ...securitycenter.ClientOption) *securitycenter.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/rest/system" {
			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte(systemResponse))
			assert.NoError(t, err)
			return
		}
		if handler != nil {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	host, port := hostPort(t, server)
	opts = append([]securitycenter.ClientOption{
		securitycenter.WithScheme("http"),
		securitycenter.WithPort(port),
	}, opts...)

	client, err := securitycenter.NewClient(context.Background(), host, opts...)
	require.NoError(t, err)

	return client
}

func TestNewClient(t *testing.T) {
	t.Run("stores server identity from status endpoint", func(t *testing.T) {
		client := setupTestClient(t, nil)

		info := client.ServerInfo()
		assert.Equal(t, "5.23.1", info.Version)
		assert.Equal(t, "202401151000", info.BuildID)
		assert.Equal(t, "Valid", info.LicenseStatus)
		assert.Equal(t, "4f1c7e9a-2b3d-4c5e-8f90-1a2b3c4d5e6f", info.UUID)
		assert.NotNil(t, client.Analysis)
		assert.False(t, client.Authenticated())
	})

	t.Run("error without host", func(t *testing.T) {
		_, err := securitycenter.NewClient(context.Background(), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, securitycenter.ErrNoHost)
	})

	t.Run("invalid server when version field is missing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte(`{"response": {"buildID": "202401151000", "licenseStatus": "Valid", "uuid": "abc"}, "error_code": 0}`))
			assert.NoError(t, err)
		}))
		t.Cleanup(server.Close)
		host, port := hostPort(t, server)

		_, err := securitycenter.NewClient(context.Background(), host,
			securitycenter.WithScheme("http"),
			securitycenter.WithPort(port),
		)
		require.Error(t, err)

		var invalid *securitycenter.InvalidServerError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, host, invalid.Host)
	})

	t.Run("invalid server on non-JSON status body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := w.Write([]byte("<html>definitely not SecurityCenter</html>"))
			assert.NoError(t, err)
		}))
		t.Cleanup(server.Close)
		host, port := hostPort(t, server)

		_, err := securitycenter.NewClient(context.Background(), host,
			securitycenter.WithScheme("http"),
			securitycenter.WithPort(port),
		)
		require.Error(t, err)

		var invalid *securitycenter.InvalidServerError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("server not found when nothing listens", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		host, port := hostPort(t, server)
		server.Close()

		_, err := securitycenter.NewClient(context.Background(), host,
			securitycenter.WithScheme("http"),
			securitycenter.WithPort(port),
		)
		require.Error(t, err)

		var notFound *securitycenter.ServerNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, host, notFound.Host)
	})

	t.Run("success with all options", func(t *testing.T) {
		client := setupTestClient(t, nil,
			securitycenter.WithUserAgent("test-agent/1.0"),
			securitycenter.WithTimeout(60*time.Second),
			securitycenter.WithRetries(2),
			securitycenter.WithRetryWait(10*time.Millisecond, 50*time.Millisecond),
		)
		require.NotNil(t, client)
	})

	t.Run("success with custom HTTP client", func(t *testing.T) {
		client := setupTestClient(t, nil,
			securitycenter.WithHTTPClient(&http.Client{Timeout: 90 * time.Second}),
		)
		require.NotNil(t, client)
	})

	t.Run("base URL reflects scheme host and port", func(t *testing.T) {
		client := setupTestClient(t, nil)
		assert.Contains(t, client.BaseURL(), "http://")
	})
}

// Package trackerclient provides typed wrappers over the Tracker REST
// resources callers need: create-metadata, projects, versions,
// components, paginated JQL search, issue fetch/create, attachment
// upload, web-link, issue-link, and the permissions probe.
// Transport-level concerns (TLS negotiation, multipart encoding,
// basic-auth encoding) live here too — the negotiation sequence (try
// TLS1.2, then 1.1, then 1.0) is part of this client's contract, not a
// separate collaborator.
package trackerclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hubforge/sync-core/internal/tlslatch"
)

// Client is an HTTP client bound to one Tracker instance.
type Client struct {
	BaseURL            string
	Username           string
	Password           string
	UseDefaultCreds    bool // integrated/SSO auth mode
	InsecureSkipVerify bool // accept self-signed certs; must be an explicit opt-in

	httpClient *http.Client
}

// NewClient builds a Client. The HTTP transport's TLS configuration is
// left unset until Probe negotiates a protocol version (or a caller
// supplies one directly via WithTLSVersion for tests).
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Username: username,
		Password: password,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithTLSVersion pins the client's transport to an exact TLS version,
// bypassing the negotiation probe. Used by Probe once it finds a working
// version, and directly by tests.
func (c *Client) WithTLSVersion(version uint16) *Client {
	c.httpClient.Transport = &http.Transport{
		TLSClientConfig: tlslatch.ClientConfig(version, c.InsecureSkipVerify),
	}
	return c
}

// Probe performs the connectivity/authorization check: it calls
// getPermissions, trying TLS1.2, then 1.1, then 1.0, and keeps the first
// protocol version that succeeds. If the process-wide latch already has
// a version, Probe uses it directly instead of renegotiating.
func (c *Client) Probe(ctx context.Context) (json.RawMessage, error) {
	latch := tlslatch.Global()
	if version, ok := latch.Version(); ok {
		c.WithTLSVersion(version)
		return c.getPermissions(ctx)
	}

	var lastErr error
	for _, version := range tlslatch.Candidates() {
		c.WithTLSVersion(version)
		body, err := c.getPermissions(ctx)
		if err == nil {
			latch.Set(version)
			return body, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("tracker permissions probe failed on every TLS version: %w", lastErr)
}

func (c *Client) getPermissions(ctx context.Context) (json.RawMessage, error) {
	body, err := c.doRequest(ctx, "GET", c.url("/mypermissions"), nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty permissions response")
	}
	return body, nil
}

func (c *Client) url(resourcePath string) string {
	return fmt.Sprintf("%s/rest/api/2%s", c.BaseURL, resourcePath)
}

// doRequest executes an authenticated request with transient-error
// retry. Retries live in the client, not in the engine, so callers never
// have to distinguish a flaky connection from a real failure.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	var respBody []byte
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(func() error {
		b, err := c.doRequestOnce(ctx, method, apiURL, body)
		if err != nil {
			if isTransportRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		respBody = b
		return nil
	}, backoff.WithContext(bo, ctx))

	return respBody, err
}

func (c *Client) doRequestOnce(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hub-sync-core/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tracker API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// setAuth applies HTTP Basic auth, or (when UseDefaultCreds is set) no
// explicit Authorization header at all, relying on the transport's
// ambient SSO/Kerberos credentials for "integrated" environments.
func (c *Client) setAuth(req *http.Request) {
	if c.UseDefaultCreds {
		return
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	req.Header.Set("Authorization", "Basic "+auth)
}

func isTransportRetryable(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, substr := range []string{"connection reset", "broken pipe", "timeout", "eof", "connection refused"} {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// tlsConfigForTest exposes a pinned config for client_test.go without
// exporting the negotiation internals.
func tlsConfigForTest(version uint16) *tls.Config {
	return tlslatch.ClientConfig(version, true)
}

func escapeKey(key string) string {
	return url.PathEscape(key)
}

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

// TestClient makes HTTP requests against a TestServer, optionally with a
// device token in the Authorization header.
type TestClient struct {
	*http.Client
	t     *testing.T
	ts    *TestServer
	token string
}

// NewTestClient creates a new test client for the given server.
func NewTestClient(t *testing.T, ts *TestServer) *TestClient {
	t.Helper()

	return &TestClient{
		Client: &http.Client{Timeout: 10 * time.Second},
		t:      t,
		ts:     ts,
	}
}

// WithToken returns a client that sends the given device token as a
// bearer token on every request.
func (c *TestClient) WithToken(token string) *TestClient {
	return &TestClient{
		Client: c.Client,
		t:      c.t,
		ts:     c.ts,
		token:  token,
	}
}

// Request makes an HTTP request to the test server. Body can be nil, an
// io.Reader, raw bytes, a string, or a struct (JSON encoded).
func (c *TestClient) Request(method, path string, body interface{}) (*http.Response, error) {
	return c.RequestWithHeaders(method, path, body, nil)
}

// RequestWithHeaders makes an HTTP request with custom headers.
func (c *TestClient) RequestWithHeaders(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := c.ts.URL + path

	var bodyReader io.Reader
	if body != nil {
		switch v := body.(type) {
		case io.Reader:
			bodyReader = v
		case []byte:
			bodyReader = bytes.NewReader(v)
		case string:
			bodyReader = bytes.NewReader([]byte(v))
		default:
			jsonBytes, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal body: %w", err)
			}
			bodyReader = bytes.NewReader(jsonBytes)
		}
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.Client.Do(req)
}

// Get makes a GET request to the test server.
func (c *TestClient) Get(path string) (*http.Response, error) {
	return c.Request(http.MethodGet, path, nil)
}

// Post makes a POST request to the test server with a JSON body.
func (c *TestClient) Post(path string, body interface{}) (*http.Response, error) {
	return c.Request(http.MethodPost, path, body)
}

// Patch makes a PATCH request to the test server with a JSON body.
func (c *TestClient) Patch(path string, body interface{}) (*http.Response, error) {
	return c.Request(http.MethodPatch, path, body)
}

// Put makes a PUT request to the test server with a JSON body.
func (c *TestClient) Put(path string, body interface{}) (*http.Response, error) {
	return c.Request(http.MethodPut, path, body)
}

// Delete makes a DELETE request to the test server.
func (c *TestClient) Delete(path string) (*http.Response, error) {
	return c.Request(http.MethodDelete, path, nil)
}

// RequireStatus fails the test if the response status does not match.
func RequireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, body)
	}
}

// ParseJSON decodes the response body into v.
func ParseJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

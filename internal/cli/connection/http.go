// Package connection provides connection management for quiescectl.
package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mbaklund/quiesce/internal/infra/tlsroots"
)

// HTTPClient provides HTTP communication with the RPC server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(server string) *HTTPClient {
	// Ensure baseURL has http:// prefix
	baseURL := server
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewHTTPClientWithCA creates an HTTP client that trusts the system roots
// plus the CA certificates in the given PEM file. Use this when the
// server presents a certificate from a private CA.
func NewHTTPClientWithCA(server, caFile string) (*HTTPClient, error) {
	pool, err := tlsroots.NewPool()
	if err != nil {
		return nil, fmt.Errorf("load system roots: %w", err)
	}
	if err := pool.AddCertFile(caFile); err != nil {
		return nil, err
	}

	c := NewHTTPClient(server)
	c.client.Transport = &http.Transport{
		TLSClientConfig: pool.TLSConfig(),
	}
	return c, nil
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "quiescectl/1.0")
	req.Header.Set("Content-Type", "application/json")

	return c.client.Do(req)
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// HealthStatus is the decoded gRPC health check response.
type HealthStatus struct {
	Status string `json:"status"`
}

// CheckHealth queries the standard gRPC health service over its
// Connect/JSON mapping. An empty service name checks the whole process.
func (c *HTTPClient) CheckHealth(ctx context.Context, service string) (*HealthStatus, error) {
	resp, err := c.Post(ctx, "/grpc.health.v1.Health/Check", map[string]string{
		"service": service,
	})
	if err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	var status HealthStatus
	if err := ParseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ParseResponse parses a JSON response body into the target struct.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("[%s] %s", errResp.Code, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}

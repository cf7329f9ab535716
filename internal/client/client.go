// Package client implements the configgery device API client.
//
// The device API has three endpoints:
//   - GET  /v1/current_configurations - current device group metadata
//   - GET  /v1/configuration          - raw bytes of one configuration version
//   - POST /v1/update_state           - report a device-state event
//
// Sessions authenticate with a client certificate (mTLS). Any non-200
// status is surfaced as a typed *Error carrying the status code and the
// diagnostic response body.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/configgery/configgery-go/internal/metadata"
)

// DefaultBaseURL is the production device API endpoint.
const DefaultBaseURL = "https://device.api.configgery.com/"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Response size caps. Metadata and state responses are small; downloads
// carry whole configuration files.
const (
	maxMetadataSize      = 10 * 1024 * 1024
	maxConfigurationSize = 100 * 1024 * 1024
)

// Error is a non-200 response from the device API.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Client is the configgery device API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client authenticating with the given PEM certificate and
// private key files. An empty baseURL selects the production endpoint.
func New(baseURL, certFile, keyFile string) (*Client, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading client certificate: %w", err)
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		},
	}
	return NewWithHTTPClient(baseURL, httpClient), nil
}

// NewWithHTTPClient creates a client around an existing *http.Client.
// Used by tests and callers needing a custom transport.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// DeviceGroupResponse is the body of GET /v1/current_configurations.
type DeviceGroupResponse struct {
	DeviceGroupID          uuid.UUID                `json:"device_group_id"`
	DeviceGroupVersion     int                      `json:"device_group_version"`
	ConfigurationsMetadata []metadata.Configuration `json:"configurations_metadata"`
}

// CurrentConfigurations fetches the device group metadata currently
// assigned to this device.
func (c *Client) CurrentConfigurations(ctx context.Context) (*DeviceGroupResponse, error) {
	body, err := c.get(ctx, "/v1/current_configurations", nil, maxMetadataSize)
	if err != nil {
		return nil, err
	}

	var resp DeviceGroupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// DownloadConfiguration fetches the raw content of one configuration
// version.
func (c *Client) DownloadConfiguration(ctx context.Context, id uuid.UUID, version int) ([]byte, error) {
	params := url.Values{}
	params.Set("configuration_id", id.String())
	params.Set("version", strconv.Itoa(version))
	return c.get(ctx, "/v1/configuration", params, maxConfigurationSize)
}

type updateStateRequest struct {
	DeviceGroupID      string `json:"device_group_id"`
	DeviceGroupVersion int    `json:"device_group_version"`
	Action             string `json:"action"`
}

// UpdateState reports a device-state event attributed to the given group.
func (c *Client) UpdateState(ctx context.Context, groupID uuid.UUID, groupVersion int, action string) error {
	body, err := json.Marshal(updateStateRequest{
		DeviceGroupID:      groupID.String(),
		DeviceGroupVersion: groupVersion,
		Action:             action,
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/update_state", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req, maxMetadataSize)
	return err
}

func (c *Client) get(ctx context.Context, path string, params url.Values, maxSize int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	return c.do(req, maxSize)
}

func (c *Client) do(req *http.Request, maxSize int64) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read maxSize+1 to detect oversized responses while still accepting
	// responses exactly at the limit.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > maxSize {
		return nil, fmt.Errorf("response exceeds maximum size of %d bytes", maxSize)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

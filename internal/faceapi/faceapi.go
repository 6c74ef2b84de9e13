// Package faceapi is a typed client for the face recognition backend.
// It performs single-attempt requests; retry policy belongs to the caller.
package faceapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/constants"
)

// Client represents a client for the face recognition API
type Client struct {
	BaseURL    string
	parsedURL  *url.URL
	httpClient *http.Client
	fields     config.ProfileFields
	captureDir string
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client) error

// WithHTTPClient replaces the HTTP client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
		return nil
	}
}

// WithProfile selects the multipart field names used by EnrollUser.
func WithProfile(p config.Profile) Option {
	return func(c *Client) error {
		c.fields = p.Fields
		return nil
	}
}

// WithCaptureDir enables API response capturing to the specified directory.
func WithCaptureDir(dir string) Option {
	return func(c *Client) error {
		return c.SetCaptureDir(dir)
	}
}

// New creates a new face API client for the given base URL (without the /api suffix).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid face API URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid face API URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		BaseURL:    baseURL,
		parsedURL:  parsed,
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		fields:     config.DefaultProfile().Fields,
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	filename := strings.ReplaceAll(endpoint, "/", "_")
	filename = strings.Trim(filename, "_")
	timestamp := c.now().Format("20060102_150405")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)

	path := filepath.Join(c.captureDir, filename)

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}

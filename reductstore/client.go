// Package reductstore is a minimal HTTP client for the ReductStore write
// path: bucket lifecycle, entry maintenance, and timestamped record
// writes with labels. Timestamps are microseconds since the Unix epoch,
// the store's native unit.
package reductstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

// labelHeaderPrefix carries record labels on write requests.
const labelHeaderPrefix = "x-reduct-label-"

// Config holds connection settings for a ReductStore instance.
type Config struct {
	// URL is the store base URL, e.g. "http://127.0.0.1:8383".
	URL string `json:"url" yaml:"url"`
	// APIToken is sent as a bearer token; empty disables authentication.
	APIToken string `json:"api_token" yaml:"api_token"`
	// Timeout bounds each HTTP request, in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`
	// WriteRateLimit caps write requests per second; 0 means unlimited.
	WriteRateLimit float64 `json:"write_rate_limit" yaml:"write_rate_limit"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "url is required")
	}
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "invalid URL format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"url scheme must be http or https")
	}
	if c.Timeout < 0 || c.Timeout > 600 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"timeout must be between 0 and 600 seconds")
	}
	if c.WriteRateLimit < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"write_rate_limit must not be negative")
	}
	return nil
}

// DefaultConfig returns default connection settings.
func DefaultConfig() Config {
	return Config{
		URL:     "http://127.0.0.1:8383",
		Timeout: 60,
	}
}

// Client talks to one ReductStore instance. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client from validated configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if config.Timeout == 0 {
		timeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if config.WriteRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.WriteRateLimit), 1)
	}

	return &Client{
		baseURL:    config.URL,
		apiToken:   config.APIToken,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

// bucketInfo is the subset of the bucket endpoint response we consume.
type bucketInfo struct {
	Entries []entryInfo `json:"entries"`
}

type entryInfo struct {
	Name string `json:"name"`
}

// serverError is the store's JSON error body.
type serverError struct {
	Detail string `json:"detail"`
}

// Alive checks connectivity by hitting the server info endpoint.
func (c *Client) Alive(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/info", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkStatus(resp, "", "")
}

// EnsureBucket creates the bucket if needed and returns a handle to it.
// An already existing bucket is not an error.
func (c *Client) EnsureBucket(ctx context.Context, name string) (*Bucket, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/b/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		if err := c.checkStatus(resp, name, ""); err != nil {
			return nil, err
		}
	}
	return &Bucket{client: c, name: name}, nil
}

// Bucket is a handle to one store bucket.
type Bucket struct {
	client *Client
	name   string
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Entries lists the entry names currently present in the bucket.
func (b *Bucket) Entries(ctx context.Context) ([]string, error) {
	resp, err := b.client.do(ctx, http.MethodGet, "/api/v1/b/"+url.PathEscape(b.name), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := b.client.checkStatus(resp, b.name, ""); err != nil {
		return nil, err
	}

	var info bucketInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.WrapTransient(err, "Bucket", "Entries", "decode bucket info")
	}

	names := make([]string, 0, len(info.Entries))
	for _, e := range info.Entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// Wipe removes every entry in the bucket. Used once at run start to reset
// the destination namespace; not part of the per-record hot path.
func (b *Bucket) Wipe(ctx context.Context) error {
	entries, err := b.Entries(ctx)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := b.RemoveEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// RemoveEntry deletes an entry and all its records. A missing entry is
// reported as ErrEntryNotFound.
func (b *Bucket) RemoveEntry(ctx context.Context, entry string) error {
	path := "/api/v1/b/" + url.PathEscape(b.name) + "/" + url.PathEscape(entry)
	resp, err := b.client.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return b.client.checkStatus(resp, b.name, entry)
}

// Write stores one record at tsUs with the given labels. The store
// rejects a timestamp already present in the entry; that surfaces as
// ErrDuplicateTimestamp so callers can treat the record as already
// written.
func (b *Bucket) Write(ctx context.Context, entry string, payload []byte, tsUs int64,
	labels map[string]string, contentType string) error {

	if b.client.limiter != nil {
		if err := b.client.limiter.Wait(ctx); err != nil {
			return errors.WrapTransient(err, "Bucket", "Write", "rate limit wait")
		}
	}

	path := "/api/v1/b/" + url.PathEscape(b.name) + "/" + url.PathEscape(entry) +
		"?ts=" + strconv.FormatInt(tsUs, 10)

	headers := make(map[string]string, len(labels)+1)
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	for k, v := range labels {
		headers[labelHeaderPrefix+k] = v
	}

	resp, err := b.client.do(ctx, http.MethodPost, path, bytes.NewReader(payload), headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return b.client.checkStatus(resp, b.name, entry)
}

// do issues one HTTP request against the store.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader,
	headers map[string]string) (*http.Response, error) {

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Client", "do", "build request")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %w", errors.ErrStoreUnavailable, err),
			"Client", "do", method+" "+path)
	}
	return resp, nil
}

// checkStatus maps HTTP status codes onto the error taxonomy, draining
// the error detail from the body where the store provides one.
func (c *Client) checkStatus(resp *http.Response, bucket, entry string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail := ""
	var body serverError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		detail = body.Detail
	}
	if detail == "" {
		detail = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusConflict:
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrDuplicateTimestamp, detail),
			"Client", "checkStatus", "write "+bucket+"/"+entry)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.WrapFatal(
			fmt.Errorf("%w: %s", errors.ErrUnauthorized, detail),
			"Client", "checkStatus", "authorize request")
	case http.StatusNotFound:
		if entry != "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %s/%s", errors.ErrEntryNotFound, bucket, entry),
				"Client", "checkStatus", "resolve entry")
		}
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrBucketNotFound, bucket),
			"Client", "checkStatus", "resolve bucket")
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return errors.WrapInvalid(
			fmt.Errorf("store rejected request: %s", detail),
			"Client", "checkStatus", "validate request")
	default:
		if resp.StatusCode >= 500 {
			return errors.WrapTransient(
				fmt.Errorf("%w: %s", errors.ErrStoreUnavailable, detail),
				"Client", "checkStatus", "store request")
		}
		return errors.Wrap(
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail),
			"Client", "checkStatus", "store request")
	}
}

// Package catalog fetches the read-only course list from the vendor's
// hosted API. One synchronous call per dashboard render, no retries, no
// caching.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 30 * time.Second

// Course is one record as returned by the API. Every field except the
// name is optional in practice; zero values mean "not provided".
type Course struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Duration    int     `json:"duration"`
	RRP         float64 `json:"rrp"`
}

// FetchError is a transport or protocol failure: the API was never
// reached, or answered with a non-success status.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is a reachable API answering with a body that is not a JSON
// course array.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

type Client struct {
	url      string
	vendorID string
	client   *http.Client
}

func NewClient(url, vendorID string) *Client {
	return &Client{
		url:      url,
		vendorID: vendorID,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

// Fetch posts the vendor id and decodes the course array. An empty array
// is a valid result; the caller decides how to present it. Errors are
// always *FetchError or *ParseError.
func (c *Client) Fetch(ctx context.Context) ([]Course, error) {
	body, err := json.Marshal(map[string]string{"vendor_id": c.vendorID})
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Err: fmt.Errorf("unexpected status %d from course API", resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	var courses []Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, &ParseError{Err: err}
	}

	return courses, nil
}

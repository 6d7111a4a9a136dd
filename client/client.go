// Package client talks to the menu HTTP API. The sync job uses it to read and
// write the remote hierarchy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const pathPrefix = "/api/v1"

var (
	ErrNotFound = errors.New("remote entity not found")
	// ErrConflict matches a 409 StatusError.
	ErrConflict = errors.New("remote entity conflicts with an existing one")
)

// StatusError is a non-2xx answer other than 404.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrConflict && e.Status == http.StatusConflict
}

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Record carries the reconciled fields of any level. Price is only set for
// dishes.
type Record struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price,omitempty"`
}

// Client is not shared between runs: each one owns its connection pool and
// Close releases it.
type Client struct {
	baseURL   string
	http      *http.Client
	transport *http.Transport
}

// New returns a client for the API at baseURL. A zero timeout means none.
func New(baseURL string, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		http:      &http.Client{Transport: transport, Timeout: timeout},
	}
}

// Close drops idle connections held by this client.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

func (c *Client) Get(ctx context.Context, ref Ref) (Record, error) {
	var rec Record
	err := c.do(ctx, http.MethodGet, ref.path(), nil, &rec)
	return rec, err
}

// List returns the children of ref's parent scope. ref.ID is ignored.
func (c *Client) List(ctx context.Context, ref Ref) ([]Record, error) {
	var recs []Record
	err := c.do(ctx, http.MethodGet, ref.collectionPath(), nil, &recs)
	return recs, err
}

// Create posts rec under ref's parent scope. A non-empty ref.ID becomes the
// primary key of the new entity.
func (c *Client) Create(ctx context.Context, ref Ref, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = ref.ID
	}
	var out Record
	err := c.do(ctx, http.MethodPost, ref.collectionPath(), rec, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, ref Ref, rec Record) (Record, error) {
	rec.ID = ""
	var out Record
	err := c.do(ctx, http.MethodPatch, ref.path(), rec, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, ref Ref) error {
	return c.do(ctx, http.MethodDelete, ref.path(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Message != "" {
		return env.Message
	}
	return strings.TrimSpace(string(raw))
}

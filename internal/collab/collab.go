// Package collab holds clients for the services the relay asks about users
// and rooms. Both are plain JSON-over-HTTP reads.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nfrund/chatrelay/internal/domain"
)

// ErrNotFound is returned when a collaborator has no record for the request.
var ErrNotFound = errors.New("collab: not found")

// UserDirectory resolves user ids to display records.
type UserDirectory interface {
	// Users returns the records it could resolve, ordered by id. Ids it
	// does not know are left out.
	Users(ctx context.Context, ids []int64) ([]domain.User, error)
}

// RoomDirectory looks up a room by id.
type RoomDirectory interface {
	Room(ctx context.Context, id int64) (domain.Room, error)
}

const defaultTimeout = 3 * time.Second

// endpoint is the shared HTTP plumbing of the directory clients.
type endpoint struct {
	baseURL string
	client  *http.Client
}

// Option configures a directory client.
type Option func(*endpoint)

// WithHTTPClient replaces the HTTP client, e.g. to add a transport.
func WithHTTPClient(c *http.Client) Option {
	return func(e *endpoint) {
		e.client = c
	}
}

// WithTimeout bounds each request made by the client. It works on a copy, so
// a shared client passed to WithHTTPClient keeps its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *endpoint) {
		c := *e.client
		c.Timeout = d
		e.client = &c
	}
}

func newEndpoint(baseURL string, opts []Option) endpoint {
	e := endpoint{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// getJSON decodes the body of GET baseURL+path?query into out.
func (e endpoint) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := e.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, errorBody(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// errorBody reads a short excerpt of a failed response for the error message.
func errorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return "<unreadable body>"
	}
	return strings.TrimSpace(string(b))
}

// Package api implements the client for SEV's realtime production feed.
//
// The provider publishes one flat JSON document describing current
// production on the Faroe Islands. Client fetches it and Parse maps it onto
// per-area readings. A failed request fails the whole fetch, while a field
// missing for one area only fails that area.
//
// Example usage:
//
//	client := api.NewClient(api.DefaultURL, 10*time.Second, logger)
//	snapshot, err := client.Fetch(ctx)
//	if err != nil {
//	    // every area is unavailable this cycle
//	}
//	reading, ok := snapshot.Readings[models.AreaMain]
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultURL is SEV's realtime production endpoint
const DefaultURL = "https://www.sev.fo/api/realtimemap/now"

// DefaultTimeout bounds a single fetch when no timeout is configured
const DefaultTimeout = 10 * time.Second

// Version is sent in the User-Agent header
const Version = "1.0.0"

// maxBodySize caps how much of the response is read
const maxBodySize = 1 << 20

var (
	ErrRequest = errors.New("error requesting production data")
	ErrStatus  = errors.New("error status from production data provider")
)

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// HTTPClient returns an http client that identifies itself to the provider
func HTTPClient(transport http.RoundTripper) *http.Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &http.Client{
		Transport: &userAgentTransport{
			transport: transport,
			userAgent: "fo-energy-production/" + Version,
		},
	}
}

// Client fetches production data from SEV
type Client struct {
	apiURL  string
	timeout time.Duration
	client  *http.Client
	logger  *logrus.Logger
	now     func() time.Time
}

// NewClient creates a Client for apiURL. A zero timeout falls back to
// DefaultTimeout.
func NewClient(apiURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		apiURL:  apiURL,
		timeout: timeout,
		client:  HTTPClient(nil),
		logger:  logger,
		now:     time.Now,
	}
}

// WithHTTPClient replaces the underlying http client, mostly for tests
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Fetch performs one request against the provider and parses the result.
//
// The returned error is non-nil only when nothing could be read at all:
// a transport failure or timeout (ErrRequest), a non-2xx answer (ErrStatus)
// or a body that is not a JSON object (ErrDecode). Per-area problems are
// reported in Snapshot.Errors.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: got %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrRequest, err)
	}

	snapshot, err := Parse(body, c.now())
	if err != nil {
		return nil, err
	}

	for area, areaErr := range snapshot.Errors {
		c.logger.WithFields(logrus.Fields{
			"area": area,
		}).WithError(areaErr).Warn("Incomplete production data")
	}

	return snapshot, nil
}

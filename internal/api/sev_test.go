package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/foenergy/internal/models"
)

func newTestClient(t *testing.T, ts *httptest.Server, timeout time.Duration) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	return NewClient(ts.URL, timeout, logger).WithHTTPClient(HTTPClient(ts.Client().Transport))
}

func TestClientFetch(t *testing.T) {
	fixture, err := os.ReadFile("testdata/realtime.json")
	require.NoError(t, err)

	var userAgent, accept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer ts.Close()

	fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	client := newTestClient(t, ts, time.Second)
	client.now = func() time.Time { return fetchedAt }

	snapshot, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, "fo-energy-production/"+Version, userAgent)
	assert.Equal(t, "application/json", accept)
	assert.Len(t, snapshot.Readings, 3)
	assert.Equal(t, fetchedAt, snapshot.Readings[models.AreaTotal].Timestamp)
}

func TestClientFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			timeout: time.Second,
			wantErr: ErrStatus,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			timeout: time.Second,
			wantErr: ErrStatus,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			wantErr: ErrRequest,
		},
		{
			name: "html instead of json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<table><tr><td>1,0</td></tr></table>"))
			},
			timeout: time.Second,
			wantErr: ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			snapshot, err := newTestClient(t, ts, tt.timeout).Fetch(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Nil(t, snapshot)
		})
	}
}

func TestClientFetchPartialPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tiden":"now","OlieS_E":"1,0"}`))
	}))
	defer ts.Close()

	snapshot, err := newTestClient(t, ts, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Readings)
	assert.Len(t, snapshot.Errors, 3)
	for _, areaErr := range snapshot.Errors {
		assert.True(t, errors.Is(areaErr, ErrMissingField))
	}
}

func TestClientFetchUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	client := NewClient(url, time.Second, logrus.New())
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequest))
}

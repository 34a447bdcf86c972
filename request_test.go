package qbitapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryOnServerError(t *testing.T) {
	d := newTestDaemon(t)
	var attempts atomic.Int32
	d.handle("app/version", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, "v4.6.6")
	})

	client := d.client()
	version, err := client.AppVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v4.6.6", version)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestServerErrorRetryBudgetExhausted(t *testing.T) {
	d := newTestDaemon(t)
	var attempts atomic.Int32
	d.handle("app/version", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	client := d.client(WithRetries(1))
	_, err := client.AppVersion(context.Background())

	var srvErr *InternalServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusBadGateway, srvErr.StatusCode)
	assert.Equal(t, int32(2), attempts.Load(), "1 retry means 2 attempts total")
}

func TestNoRetryOnClientError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "404 maps to NotFoundError",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var nf *NotFoundError
				require.ErrorAs(t, err, &nf)
			},
		},
		{
			name:   "409 maps to ConflictError",
			status: http.StatusConflict,
			body:   "torrent already exists",
			check: func(t *testing.T, err error) {
				var conflict *ConflictError
				require.ErrorAs(t, err, &conflict)
				assert.Contains(t, conflict.Error(), "torrent already exists")
			},
		},
		{
			name:   "empty 400 maps to MissingRequiredParametersError",
			status: http.StatusBadRequest,
			check: func(t *testing.T, err error) {
				var missing *MissingRequiredParametersError
				require.ErrorAs(t, err, &missing)
			},
		},
		{
			name:   "400 with body maps to InvalidRequestError",
			status: http.StatusBadRequest,
			body:   "priority must be an integer",
			check: func(t *testing.T, err error) {
				var invalid *InvalidRequestError
				require.ErrorAs(t, err, &invalid)
				assert.Contains(t, invalid.Error(), "priority must be an integer")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDaemon(t)
			var attempts atomic.Int32
			d.handle("torrents/recheck", func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			client := d.client()
			err := client.TorrentsRecheck(context.Background(), "abc")
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, int32(1), attempts.Load(), "client errors must not be retried")
		})
	}
}

func TestSecondForbiddenIsFatal(t *testing.T) {
	d := newTestDaemon(t)
	var attempts atomic.Int32
	d.handle("torrents/info", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "Forbidden")
	})

	client := d.client()
	_, err := client.TorrentsInfo(context.Background(), TorrentFilterOptions{})

	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, int32(2), attempts.Load(), "exactly one re-login retry is allowed")
	assert.Equal(t, int32(2), d.loginCalls.Load())
}

func TestForbiddenOnAuthEndpointPropagates(t *testing.T) {
	var loginCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/auth/login" {
			loginCalls.Add(1)
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, "User's IP is banned for too many failed login attempts")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithCredentials("admin", "wrong"), WithBackoffBase(0))
	err := client.Login(context.Background(), "", "")

	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Contains(t, forbidden.Error(), "banned")
	assert.Equal(t, int32(1), loginCalls.Load(), "a 403 during login must not trigger another login")
}

func TestConnectionErrorExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	client := NewClient(host, WithCredentials("admin", "adminadmin"),
		WithRetries(0), WithBackoffBase(0))
	_, err := client.TorrentsInfo(context.Background(), TorrentFilterOptions{})

	var connErr *APIConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.NotEmpty(t, connErr.Class)
	assert.NotNil(t, errors.Unwrap(connErr))
}

func TestVersionGateSkipsUnsupportedEndpoint(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("app/webapiVersion", "2.0")
	var exportCalls atomic.Int32
	d.handle("torrents/export", func(w http.ResponseWriter, r *http.Request) {
		exportCalls.Add(1)
	})

	client := d.client()
	raw, err := client.TorrentsExport(context.Background(), "abc")
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Equal(t, int32(0), exportCalls.Load(), "gated endpoint must never reach the daemon")
}

func TestVersionGateStrictMode(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("app/webapiVersion", "2.0")

	client := d.client(WithStrictEndpoints())
	_, err := client.TorrentsExport(context.Background(), "abc")

	var gateErr *UnsupportedEndpointError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, "torrents/export", gateErr.Endpoint)
	assert.Equal(t, "2.8.11", gateErr.Introduced)
	assert.Equal(t, "2.0", gateErr.Current)
	assert.Contains(t, gateErr.Error(), "available starting in")
}

func TestVersionGatePassesSupportedEndpoint(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("app/webapiVersion", "2.9.3")
	d.handle("torrents/export", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x64, 0x38, 0x3a}) // bencode prefix
	})

	client := d.client()
	raw, err := client.TorrentsExport(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x64, 0x38, 0x3a}, raw)
}

func TestExtraHeadersSent(t *testing.T) {
	d := newTestDaemon(t)
	d.handle("app/version", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "proxy-token", r.Header.Get("X-Forwarded-Auth"))
		io.WriteString(w, "v4.6.6")
	})

	client := d.client(WithExtraHeaders(map[string]string{"X-Forwarded-Auth": "proxy-token"}))
	_, err := client.AppVersion(context.Background())
	require.NoError(t, err)
}

func TestEmptyPostHasContentLength(t *testing.T) {
	d := newTestDaemon(t)
	d.handle("app/shutdown", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, int64(0), r.ContentLength)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
	})

	client := d.client()
	require.NoError(t, client.AppShutdown(context.Background()))
}

package qbitapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForcedSchemeSkipsProbes(t *testing.T) {
	var headProbes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			headProbes.Add(1)
			return
		}
		if r.URL.Path == "/api/v2/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: "SID", Value: "s"})
			io.WriteString(w, "Ok.")
			return
		}
		io.WriteString(w, "v4.6.6")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithCredentials("admin", "adminadmin"), WithForceScheme())
	_, err := client.AppVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), headProbes.Load(), "a pinned scheme must not be probed")
}

func TestSchemeDetectedWhenAbsent(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("app/version", "v4.6.6")

	bare := strings.TrimPrefix(d.srv.URL, "http://")
	client := NewClient(bare, WithCredentials("admin", "adminadmin"))
	version, err := client.AppVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v4.6.6", version)
}

func TestPathPrefixPreserved(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "auth/login") {
			http.SetCookie(w, &http.Cookie{Name: "SID", Value: "s"})
			io.WriteString(w, "Ok.")
			return
		}
		io.WriteString(w, "v4.6.6")
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/qbt", WithCredentials("admin", "adminadmin"))
	_, err := client.AppVersion(context.Background())
	require.NoError(t, err)
	assert.Contains(t, paths, "/qbt/api/v2/auth/login")
	assert.Contains(t, paths, "/qbt/api/v2/app/version")
}

func TestPortOptionApplied(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("app/version", "v4.6.6")

	parsed, err := url.Parse(d.srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)

	client := NewClient(parsed.Hostname(), WithCredentials("admin", "adminadmin"), WithPort(port))
	version, err := client.AppVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v4.6.6", version)
}

func TestInvalidHost(t *testing.T) {
	client := NewClient("http://", WithCredentials("admin", "adminadmin"))
	_, err := client.resolveBaseURL(context.Background())

	var connErr *APIConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "invalid host", connErr.Class)
}

func TestBaseURLCachedUntilReset(t *testing.T) {
	var headProbes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			headProbes.Add(1)
		}
	}))
	defer srv.Close()

	bare := strings.TrimPrefix(srv.URL, "http://")
	client := NewClient(bare, WithCredentials("admin", "adminadmin"))
	ctx := context.Background()

	base1, err := client.resolveBaseURL(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(base1, "/"))
	probesAfterFirst := headProbes.Load()
	assert.Greater(t, probesAfterFirst, int32(0))

	base2, err := client.resolveBaseURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, base1, base2)
	assert.Equal(t, probesAfterFirst, headProbes.Load(), "cached base must not re-probe")

	client.ResetContext()
	_, err = client.resolveBaseURL(ctx)
	require.NoError(t, err)
	assert.Greater(t, headProbes.Load(), probesAfterFirst, "reset must re-run detection")
}

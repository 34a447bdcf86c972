package qbitapi

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Environment variables recognized as fallbacks when the corresponding value
// is not supplied programmatically, newest naming scheme first.
var (
	envHost     = []string{"QBITAPI_HOST", "QBITTORRENTAPI_HOST", "PYTHON_QBITTORRENTAPI_HOST"}
	envUsername = []string{"QBITAPI_USERNAME", "QBITTORRENTAPI_USERNAME", "PYTHON_QBITTORRENTAPI_USERNAME"}
	envPassword = []string{"QBITAPI_PASSWORD", "QBITTORRENTAPI_PASSWORD", "PYTHON_QBITTORRENTAPI_PASSWORD"}
	envNoVerify = []string{
		"QBITAPI_DO_NOT_VERIFY_WEBUI_CERTIFICATE",
		"QBITTORRENTAPI_DO_NOT_VERIFY_WEBUI_CERTIFICATE",
		"PYTHON_QBITTORRENTAPI_DO_NOT_VERIFY_WEBUI_CERTIFICATE",
	}
)

// session holds the per-connection context: the auth cookie, the resolved
// base URL, and the cached Web API version. All fields are cleared together
// whenever the context must be rebuilt (scheme flip, expired cookie, logout).
type session struct {
	cookie     string
	baseURL    string
	apiVersion string
}

// Client talks to a single qBittorrent Web UI instance. It is safe for
// concurrent use: session mutation is mutex-guarded while the HTTP calls
// themselves run unlocked.
type Client struct {
	host string
	opts clientOptions

	logger zerolog.Logger

	mu      sync.Mutex
	session session
	http    *http.Client
}

// NewClient creates a client for the daemon at host. The host may carry a
// scheme, a port, and a path prefix ("https://example.com:8080/qbt/"); absent
// parts are detected or defaulted at first use. Construction performs no
// network I/O.
func NewClient(host string, opts ...Option) *Client {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	// environment variables have the lowest priority
	if host == "" {
		host = envFirst(envHost)
	}
	if options.username == "" {
		options.username = envFirst(envUsername)
	}
	if options.password == nil {
		if pw, ok := envLookup(envPassword); ok {
			options.password = &pw
		}
	}
	if options.verifyCert {
		if _, ok := envLookup(envNoVerify); ok {
			options.verifyCert = false
		}
	}

	logger := options.logger
	if !options.hasLogger {
		logger = zerolog.Nop()
	}
	if options.disableDebugOutput && logger.GetLevel() < zerolog.InfoLevel {
		logger = logger.Level(zerolog.InfoLevel)
	}

	return &Client{
		host:   host,
		opts:   options,
		logger: logger.With().Str("component", "qbitapi").Logger(),
	}
}

func envFirst(names []string) string {
	v, _ := envLookup(names)
	return v
}

func envLookup(names []string) (string, bool) {
	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
	}
	return "", false
}

// ResetContext clears the session cookie, the cached base URL, and the cached
// Web API version, and drops the managed transport so everything is re-derived
// lazily on next use. Safe to call redundantly.
func (c *Client) ResetContext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetContextLocked()
}

func (c *Client) resetContextLocked() {
	c.logger.Debug().Msg("re-initializing context")
	c.session = session{}
	c.dropTransportLocked()
}

// dropTransportLocked discards the managed HTTP client so the next request
// builds a fresh one. A user-supplied http.Client is never dropped.
func (c *Client) dropTransportLocked() {
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
	c.http = nil
}

// transport returns the HTTP client for the current connection context,
// building it lazily. Only one transport exists per client at a time.
func (c *Client) transport() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.httpClient != nil {
		return c.opts.httpClient
	}
	if c.http != nil {
		return c.http
	}

	tr := c.opts.transport
	if tr == nil {
		tr = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 10,
		}
	}
	if !c.opts.verifyCert {
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{}
		}
		tr.TLSClientConfig.InsecureSkipVerify = true
	}

	c.http = &http.Client{
		Timeout:   c.opts.timeout,
		Transport: tr,
	}
	return c.http
}

func (c *Client) cookie() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.cookie
}

func (c *Client) setCookie(cookie string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.cookie = cookie
}

// IsLoggedIn reports whether the current session cookie is accepted by the
// daemon. This is a real authenticated probe, not a local cookie check:
// qBittorrent invalidates cookies server-side, so presence alone proves
// nothing. No login is attempted.
func (c *Client) IsLoggedIn(ctx context.Context) bool {
	_, err := c.do(ctx, callSpec{
		namespace: "app",
		method:    "version",
		verb:      http.MethodGet,
		noAuth:    true,
	})
	return err == nil
}

// webAPIVersion returns the connected daemon's Web API version, fetching and
// caching it on first use. The version gate consults this for every bounded
// endpoint.
func (c *Client) webAPIVersion(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.session.apiVersion
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	res, err := c.do(ctx, callSpec{
		namespace: "app",
		method:    "webapiVersion",
		verb:      http.MethodGet,
	})
	if err != nil {
		return "", err
	}

	version := res.Text()
	c.mu.Lock()
	c.session.apiVersion = version
	c.mu.Unlock()
	return version, nil
}

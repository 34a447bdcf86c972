package qbitapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultRetries     = 2
	defaultBackoffBase = 300 * time.Millisecond
	maxBackoff         = 10 * time.Second
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	username string
	password *string
	port     int

	timeout     time.Duration
	retries     int
	backoffBase time.Duration

	extraHeaders map[string]string
	httpClient   *http.Client
	transport    *http.Transport
	verifyCert   bool

	forceScheme        bool
	strictEndpoints    bool
	strictVersionCheck bool
	simpleResponses    bool
	verboseLogging     bool
	disableDebugOutput bool

	logger    zerolog.Logger
	hasLogger bool
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:     defaultTimeout,
		retries:     defaultRetries,
		backoffBase: defaultBackoffBase,
		verifyCert:  true,
	}
}

// WithCredentials sets the username and password used for login. An empty
// password is accepted as long as it is set explicitly here; a username
// without any password fails at login time.
func WithCredentials(username, password string) Option {
	return func(o *clientOptions) {
		o.username = username
		o.password = &password
	}
}

// WithPort sets the TCP port, used when the host string does not carry one.
func WithPort(port int) Option {
	return func(o *clientOptions) {
		o.port = port
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithRetries sets how many extra dispatch attempts are made for transient
// failures (5xx responses and connection errors).
func WithRetries(retries int) Option {
	return func(o *clientOptions) {
		if retries >= 0 {
			o.retries = retries
		}
	}
}

// WithBackoffBase sets the base delay for exponential retry backoff. The
// first retry is always immediate; subsequent delays double from this base,
// capped at 10s.
func WithBackoffBase(base time.Duration) Option {
	return func(o *clientOptions) {
		if base >= 0 {
			o.backoffBase = base
		}
	}
}

// WithExtraHeaders merges the given headers into every request.
func WithExtraHeaders(headers map[string]string) Option {
	return func(o *clientOptions) {
		o.extraHeaders = headers
	}
}

// WithHTTPClient supplies a fully custom *http.Client. The client is used
// as-is and is never rebuilt on context resets.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithTransport supplies a custom *http.Transport for connection-pool and
// adapter tuning while keeping the managed client lifecycle.
func WithTransport(transport *http.Transport) Option {
	return func(o *clientOptions) {
		o.transport = transport
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Use with caution and only for self-signed WebUI certificates.
func WithInsecureSkipVerify() Option {
	return func(o *clientOptions) {
		o.verifyCert = false
	}
}

// WithForceScheme pins the scheme from the host string instead of
// auto-detecting HTTP vs HTTPS. No probe requests are issued when the host
// carries an explicit scheme.
func WithForceScheme() Option {
	return func(o *clientOptions) {
		o.forceScheme = true
	}
}

// WithStrictEndpoints makes calls to endpoints unsupported by the connected
// daemon version return an UnsupportedEndpointError instead of being skipped.
func WithStrictEndpoints() Option {
	return func(o *clientOptions) {
		o.strictEndpoints = true
	}
}

// WithStrictVersionCheck makes Login fail with an UnsupportedVersionError
// when the connected daemon is outside the known-supported registry.
func WithStrictVersionCheck() Option {
	return func(o *clientOptions) {
		o.strictVersionCheck = true
	}
}

// WithSimpleResponses makes structured responses decode as plain data without
// binding records to the client. Can also be overridden per call.
func WithSimpleResponses() Option {
	return func(o *clientOptions) {
		o.simpleResponses = true
	}
}

// WithVerboseLogging logs every request and response at debug level.
func WithVerboseLogging() Option {
	return func(o *clientOptions) {
		o.verboseLogging = true
	}
}

// WithDisabledDebugOutput clamps this client's logger to Info level.
func WithDisabledDebugOutput() Option {
	return func(o *clientOptions) {
		o.disableDebugOutput = true
	}
}

// WithLogger sets the zerolog logger used by the client. Defaults to a no-op
// logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
		o.hasLogger = true
	}
}

package qbitapi

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// APIError is implemented by every error produced by this package, whether it
// originated from an HTTP error status, a failed login, a transport failure,
// or response parsing.
type APIError interface {
	error
	apiError()
}

// ErrNotBound is returned by bound record methods (e.g. Torrent.Pause) when the
// record was decoded in simple-responses mode and carries no client reference.
var ErrNotBound = errors.New("record is not bound to a client")

// statusError carries the HTTP status and the daemon's own diagnostic text so
// it reaches the caller unmodified.
type statusError struct {
	kind       string
	StatusCode int
	Detail     string
}

func (e *statusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("qbittorrent: %s (status %d)", e.kind, e.StatusCode)
	}
	return fmt.Sprintf("qbittorrent: %s (status %d): %s", e.kind, e.StatusCode, e.Detail)
}

func (e *statusError) apiError() {}

// MissingRequiredParametersError is a 400 with no usable diagnostic text,
// which the daemon sends when required parameters are absent.
type MissingRequiredParametersError struct{ statusError }

// InvalidRequestError is a 400 carrying the daemon's description of what was
// wrong with the request.
type InvalidRequestError struct{ statusError }

// UnauthorizedError is a 401 response.
type UnauthorizedError struct{ statusError }

// ForbiddenError is a 403 response: not logged in, banned, or calling a
// non-public endpoint.
type ForbiddenError struct{ statusError }

// NotFoundError is a 404 response. When the daemon sends no body, the message
// is synthesized from the hash(es) in the outgoing payload so the caller knows
// which torrent was missing.
type NotFoundError struct{ statusError }

// MethodNotAllowedError is a 405 response.
type MethodNotAllowedError struct{ statusError }

// ConflictError is a 409 response.
type ConflictError struct{ statusError }

// UnsupportedMediaTypeError is a 415 response.
type UnsupportedMediaTypeError struct{ statusError }

// InternalServerError is any 5xx response; StatusCode carries the exact
// status for caller introspection.
type InternalServerError struct{ statusError }

// GenericHTTPError is any error status not covered by a dedicated type.
type GenericHTTPError struct{ statusError }

// LoginFailedError indicates the daemon rejected the supplied credentials or
// did not issue a session cookie.
type LoginFailedError struct {
	Username string
	Detail   string
}

func (e *LoginFailedError) Error() string {
	msg := fmt.Sprintf("qbittorrent: login failed for user %q", e.Username)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *LoginFailedError) apiError() {}

// UnsupportedEndpointError is returned (when WithStrictEndpoints is set) for
// calls to endpoints the connected daemon version does not implement.
type UnsupportedEndpointError struct {
	Endpoint   string
	Introduced string
	Removed    string
	Current    string
}

func (e *UnsupportedEndpointError) Error() string {
	if e.Removed != "" && compareVersions(e.Current, e.Removed) >= 0 {
		return fmt.Sprintf("qbittorrent: endpoint %s was removed in Web API v%s (connected: v%s)",
			e.Endpoint, e.Removed, e.Current)
	}
	return fmt.Sprintf("qbittorrent: endpoint %s is available starting in Web API v%s (connected: v%s)",
		e.Endpoint, e.Introduced, e.Current)
}

func (e *UnsupportedEndpointError) apiError() {}

// UnsupportedVersionError is returned from Login (when WithStrictVersionCheck
// is set) if the connected daemon is outside the known-supported registry.
type UnsupportedVersionError struct {
	AppVersion string
	APIVersion string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("qbittorrent: version not fully supported by this client => app %s, Web API %s",
		e.AppVersion, e.APIVersion)
}

func (e *UnsupportedVersionError) apiError() {}

// ResponseParseError wraps any failure to decode a response into the requested
// shape. Parse failures are never silently defaulted since that would mask
// real server-side problems.
type ResponseParseError struct {
	Err error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("qbittorrent: failed to parse response: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }
func (e *ResponseParseError) apiError()     {}

// APIConnectionError is raised once the retry budget for connection-level
// failures is exhausted. Class is a human-readable classification of the
// underlying transport error.
type APIConnectionError struct {
	Class string
	Err   error
}

func (e *APIConnectionError) Error() string {
	return fmt.Sprintf("qbittorrent: failed to connect: %s: %v", e.Class, e.Err)
}

func (e *APIConnectionError) Unwrap() error { return e.Err }
func (e *APIConnectionError) apiError()     {}

// mapStatusError translates an HTTP error status plus response body into the
// typed error taxonomy. Statuses below 400 never reach this function.
func mapStatusError(status int, body string, data, params url.Values) APIError {
	mk := func(kind string) statusError {
		return statusError{kind: kind, StatusCode: status, Detail: body}
	}

	switch {
	case status == http.StatusBadRequest:
		// the daemon only returns a body for 400 when it can describe the
		// problem; "Bad Request" started being returned in v4.3.0
		if body == "" || body == "Bad Request" {
			return &MissingRequiredParametersError{statusError{kind: "missing required parameters", StatusCode: status}}
		}
		return &InvalidRequestError{mk("invalid request")}
	case status == http.StatusUnauthorized:
		return &UnauthorizedError{mk("unauthorized")}
	case status == http.StatusForbidden:
		return &ForbiddenError{mk("forbidden")}
	case status == http.StatusNotFound:
		if body == "" || body == "Not Found" {
			e := &NotFoundError{mk("not found")}
			e.Detail = notFoundDetail(data, params)
			return e
		}
		return &NotFoundError{mk("not found")}
	case status == http.StatusMethodNotAllowed:
		return &MethodNotAllowedError{mk("method not allowed")}
	case status == http.StatusConflict:
		return &ConflictError{mk("conflict")}
	case status == http.StatusUnsupportedMediaType:
		return &UnsupportedMediaTypeError{mk("unsupported media type")}
	case status >= 500:
		return &InternalServerError{mk("internal server error")}
	default:
		return &GenericHTTPError{mk("http error")}
	}
}

// notFoundDetail synthesizes a message from the hash(es) in the outgoing
// payload when the daemon sends an empty 404 body.
func notFoundDetail(data, params url.Values) string {
	for _, payload := range []url.Values{data, params} {
		for _, key := range []string{"hash", "hashes"} {
			if v := payload.Get(key); v != "" {
				return "torrent hash(es): " + v
			}
		}
	}
	return ""
}

// classifyConnError labels a transport-level error for the APIConnectionError
// prefix, since the raw error text alone is often unhelpful to an end user.
func classifyConnError(err error) string {
	if isTLSError(err) {
		return "TLS certificate not trusted (set WithInsecureSkipVerify to connect anyway)"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNS resolution failed"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timed out"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "timed out"
		}
		if opErr.Op == "dial" {
			return "connection refused or unreachable"
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return "connection refused or unreachable"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return "timed out"
	case strings.Contains(msg, "no such host"):
		return "DNS resolution failed"
	default:
		return "connection error"
	}
}

// isTLSError reports whether err stems from TLS trust verification, which
// scheme detection uses as a hint that the daemon listens on HTTPS.
func isTLSError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unkAuth x509.UnknownAuthorityError
	if errors.As(err, &unkAuth) {
		return true
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return true
	}
	var invErr x509.CertificateInvalidError
	if errors.As(err, &invErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "x509") ||
		strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "first record does not look like a tls handshake")
}

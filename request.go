package qbitapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiBasePath = "api/v2"

// FileUpload is a file part for multipart endpoints (e.g. torrents/add).
// Content is held in memory so a retried request can always re-send it.
type FileUpload struct {
	Field    string
	Filename string
	Content  []byte
}

// CallOptions describes a single logical API call for the generic Call entry
// point. Domain methods are thin wrappers that populate this.
type CallOptions struct {
	Namespace string
	Method    string
	// Verb is http.MethodGet or http.MethodPost.
	Verb string
	// Params are sent as query-string parameters (GET).
	Params url.Values
	// Data is sent as a form-encoded body (POST).
	Data    url.Values
	Files   []FileUpload
	Headers map[string]string
	// Version bounds for the endpoint, e.g. Introduced "2.3". Empty means
	// unbounded.
	VersionIntroduced string
	VersionRemoved    string
	// SimpleResponses overrides the client-wide simple-responses mode for
	// this call only.
	SimpleResponses bool
}

// callSpec is the internal form of a call. noAuth marks authorization
// endpoints and probes: no login is attempted for them and a 403 propagates
// immediately instead of triggering a re-login.
type callSpec struct {
	namespace  string
	method     string
	verb       string
	params     url.Values
	data       url.Values
	files      []FileUpload
	headers    map[string]string
	introduced string
	removed    string
	simple     bool
	noAuth     bool
}

func (s callSpec) endpoint() string {
	return s.namespace + "/" + s.method
}

// Call executes a single logical API call: version gate, dispatch, error
// mapping, and retries. A nil Result with a nil error means the endpoint is
// not supported by the connected daemon and the call was skipped (see
// WithStrictEndpoints).
func (c *Client) Call(ctx context.Context, opts CallOptions) (*Result, error) {
	return c.do(ctx, callSpec{
		namespace:  opts.Namespace,
		method:     opts.Method,
		verb:       opts.Verb,
		params:     opts.Params,
		data:       opts.Data,
		files:      opts.Files,
		headers:    opts.Headers,
		introduced: opts.VersionIntroduced,
		removed:    opts.VersionRemoved,
		simple:     opts.SimpleResponses,
	})
}

// do drives one call through its state machine:
//
//	version gate -> dispatch -> 2xx success
//	                         -> 403 once: re-login, retry dispatch
//	                         -> 5xx: backoff retry within budget
//	                         -> conn error: context rebuild + retry within budget
//	                         -> other 4xx: map and fail immediately
func (c *Client) do(ctx context.Context, spec callSpec) (*Result, error) {
	if spec.introduced != "" || spec.removed != "" {
		supported, err := c.gateEndpoint(ctx, spec)
		if err != nil || !supported {
			return nil, err
		}
	}

	reauthed := false
	attempt := 0
	for {
		res, err := c.dispatch(ctx, spec)
		if err != nil {
			// typed errors (login failures, mapped statuses from a nested
			// login) are final; only transport failures are retried
			var apiErr APIError
			if errors.As(err, &apiErr) {
				return nil, err
			}
			if attempt >= c.opts.retries {
				class := classifyConnError(err)
				c.logger.Debug().Err(err).Str("class", class).
					Str("endpoint", spec.endpoint()).Msg("connection retries exhausted")
				return nil, &APIConnectionError{Class: class, Err: err}
			}
			if werr := c.backoff(ctx, attempt); werr != nil {
				return nil, &APIConnectionError{Class: classifyConnError(werr), Err: werr}
			}
			attempt++
			c.logger.Debug().Err(err).Int("attempt", attempt).
				Str("endpoint", spec.endpoint()).Msg("retrying after connection error")
			// a failed connection may mean the scheme changed; redo detection
			c.ResetContext()
			continue
		}

		switch {
		case res.StatusCode < 400:
			return res, nil

		case res.StatusCode == http.StatusForbidden && !spec.noAuth && !reauthed:
			reauthed = true
			c.logger.Debug().Str("endpoint", spec.endpoint()).
				Msg("session may have expired, attempting new login")
			if lerr := c.Login(ctx, "", ""); lerr != nil {
				return nil, lerr
			}
			continue

		case res.StatusCode >= 500:
			if attempt >= c.opts.retries {
				return nil, mapStatusError(res.StatusCode, res.Text(), spec.data, spec.params)
			}
			if werr := c.backoff(ctx, attempt); werr != nil {
				return nil, &APIConnectionError{Class: classifyConnError(werr), Err: werr}
			}
			attempt++
			c.logger.Debug().Int("status", res.StatusCode).Int("attempt", attempt).
				Str("endpoint", spec.endpoint()).Msg("retrying after server error")
			continue

		default:
			return nil, mapStatusError(res.StatusCode, res.Text(), spec.data, spec.params)
		}
	}
}

// gateEndpoint consults the version gate for a bounded endpoint. A skipped
// call returns (false, nil) unless strict endpoints are configured.
func (c *Client) gateEndpoint(ctx context.Context, spec callSpec) (bool, error) {
	current, err := c.webAPIVersion(ctx)
	if err != nil {
		return false, err
	}
	if endpointSupported(spec.introduced, spec.removed, current) {
		return true, nil
	}

	gateErr := &UnsupportedEndpointError{
		Endpoint:   spec.endpoint(),
		Introduced: spec.introduced,
		Removed:    spec.removed,
		Current:    current,
	}
	if c.opts.strictEndpoints {
		return false, gateErr
	}
	c.logger.Debug().Str("endpoint", spec.endpoint()).Str("api_version", current).
		Msg(gateErr.Error())
	return false, nil
}

// backoff sleeps before retry attempt n (0-based). The first retry is
// immediate; later delays double from the configured base, capped at 10s.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	if attempt == 0 {
		return ctx.Err()
	}
	delay := c.opts.backoffBase << (attempt - 1)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dispatch performs one HTTP attempt: ensure auth, resolve the base URL
// (re-running scheme detection if the context was reset), send, and read the
// body. It returns transport errors unwrapped so do can classify them.
func (c *Client) dispatch(ctx context.Context, spec callSpec) (*Result, error) {
	if !spec.noAuth {
		if err := c.ensureAuthenticated(ctx); err != nil {
			return nil, err
		}
	}

	base, err := c.resolveBaseURL(ctx)
	if err != nil {
		return nil, err
	}

	endpointURL := base + strings.Join([]string{apiBasePath, spec.namespace, spec.method}, "/")
	if len(spec.params) > 0 {
		endpointURL += "?" + spec.params.Encode()
	}

	body, contentType, err := encodeBody(spec)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, spec.verb, endpointURL, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range c.opts.extraHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range spec.headers {
		req.Header.Set(k, v)
	}
	if cookie := c.cookie(); cookie != "" {
		req.AddCookie(&http.Cookie{Name: "SID", Value: cookie})
	}

	resp, err := c.transport().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.verboseLog(spec, resp, raw)

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		cookies:    resp.Cookies(),
		body:       raw,
		simple:     c.opts.simpleResponses || spec.simple,
	}, nil
}

// encodeBody builds the request body for a POST: multipart when file parts
// are present, form-encoded otherwise. GET requests carry no body. Bodies are
// rebuilt from buffered content on every attempt, so retries never re-send a
// consumed stream.
func encodeBody(spec callSpec) (io.Reader, string, error) {
	if spec.verb != http.MethodPost {
		return nil, "", nil
	}

	if len(spec.files) > 0 {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for key, values := range spec.data {
			for _, value := range values {
				if err := w.WriteField(key, value); err != nil {
					return nil, "", fmt.Errorf("write multipart field %q: %w", key, err)
				}
			}
		}
		for _, f := range spec.files {
			part, err := w.CreateFormFile(f.Field, f.Filename)
			if err != nil {
				return nil, "", fmt.Errorf("create multipart file %q: %w", f.Filename, err)
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, "", fmt.Errorf("write multipart file %q: %w", f.Filename, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}

	// an empty reader still produces Content-Length: 0, which the daemon
	// requires on empty POSTs
	return strings.NewReader(spec.data.Encode()), "application/x-www-form-urlencoded", nil
}

func (c *Client) verboseLog(spec callSpec, resp *http.Response, body []byte) {
	if !c.opts.verboseLogging {
		return
	}
	maxLen := 256
	if resp.StatusCode >= 400 {
		maxLen = 10000
	}
	ev := c.logger.Debug().
		Str("method", spec.verb).
		Str("url", resp.Request.URL.String()).
		Int("status", resp.StatusCode)
	// never log credentials
	if spec.endpoint() != "auth/login" && len(spec.data) > 0 {
		ev = ev.Str("data", truncate(spec.data.Encode(), maxLen))
	}
	ev.Str("response", truncate(string(body), maxLen)).Msg("api call")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...<truncated>"
}

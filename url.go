package qbitapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// resolveBaseURL returns the base URL for all API endpoints, computing it on
// first use and caching it on the session until the context is reset.
//
// When the user did not pin a scheme, HTTP is tried first and HTTPS second.
// That order looks backwards, but the daemon (or a proxy in front of it) can
// redirect to HTTPS and the redirected scheme is respected. The returned URL
// always ends with "/" so joining never drops a user-supplied path prefix.
func (c *Client) resolveBaseURL(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.session.baseURL
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	host := c.host
	if !strings.HasPrefix(strings.ToLower(host), "http:") &&
		!strings.HasPrefix(strings.ToLower(host), "https:") &&
		!strings.HasPrefix(host, "//") {
		host = "//" + host
	}
	parsed, err := url.Parse(host)
	if err != nil || parsed.Host == "" {
		return "", &APIConnectionError{Class: "invalid host", Err: err}
	}

	userScheme := strings.ToLower(parsed.Scheme)
	defaultScheme := userScheme
	if defaultScheme == "" {
		defaultScheme = "http"
	}
	altScheme := "https"
	if defaultScheme == "https" {
		altScheme = "http"
	}

	if c.opts.port != 0 && parsed.Port() == "" {
		parsed.Host = parsed.Host + ":" + strconv.Itoa(c.opts.port)
	}

	if userScheme != "" && c.opts.forceScheme {
		parsed.Scheme = userScheme
	} else {
		scheme := c.detectScheme(ctx, parsed, defaultScheme, altScheme)
		if userScheme != "" && scheme != userScheme {
			c.logger.Warn().Str("requested", userScheme).Str("using", scheme).
				Msg("requested scheme does not answer, using detected scheme")
		}
		parsed.Scheme = scheme
	}

	base := parsed.String()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	c.logger.Debug().Str("base_url", base).Msg("resolved base URL")

	c.mu.Lock()
	c.session.baseURL = base
	// a (re)computed base implies a changed connection context
	c.dropTransportLocked()
	c.mu.Unlock()

	return base, nil
}

// detectScheme probes the candidate schemes with a HEAD request. A TLS trust
// failure marks HTTPS as preferred should the plain attempt also fail; any
// other connection failure just moves on to the alternate scheme. Probe
// failures never fail resolution outright - the real error, if any, surfaces
// on the actual API call.
func (c *Client) detectScheme(ctx context.Context, base *url.URL, defaultScheme, altScheme string) string {
	c.logger.Debug().Msg("detecting scheme for URL")
	preferTLS := false
	for _, scheme := range []string{defaultScheme, altScheme} {
		probe := *base
		probe.Scheme = scheme
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, probe.String(), nil)
		if err != nil {
			continue
		}
		resp, err := c.transport().Do(req)
		if err != nil {
			if isTLSError(err) {
				// the daemon likely listens on HTTPS but the certificate is
				// not trusted; fall back to HTTPS if HTTP also fails
				c.logger.Debug().Msg("TLS trust error: will prefer HTTPS if HTTP fails")
				preferTLS = true
			} else {
				c.logger.Debug().Str("scheme", scheme).Err(err).Msg("probe failed")
			}
			continue
		}
		resp.Body.Close()
		// adopt the scheme of the final (possibly redirected) URL
		detected := resp.Request.URL.Scheme
		c.logger.Debug().Str("scheme", detected).Msg("detected scheme")
		return detected
	}

	if preferTLS {
		return "https"
	}
	return "http"
}

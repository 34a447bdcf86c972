package qbitapi

import (
	"context"
	"net/http"
	"net/url"
)

// Login authenticates against the daemon and stores the session cookie.
// Empty username and password fall back to the credentials supplied at
// construction or via the environment. Passing a non-empty username here sets
// the password too, even when empty.
//
// With WithStrictVersionCheck, a successful login also verifies the connected
// daemon against the supported-version registry and returns an
// UnsupportedVersionError when it falls outside.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username != "" {
		c.mu.Lock()
		c.opts.username = username
		c.opts.password = &password
		c.mu.Unlock()
	}

	c.mu.Lock()
	user := c.opts.username
	pass := c.opts.password
	c.mu.Unlock()

	if user != "" && pass == nil {
		// never silently substitute a password; an empty one must be explicit
		return &LoginFailedError{Username: user, Detail: "username set but no password provided"}
	}
	credentials := url.Values{"username": {user}}
	if pass != nil {
		credentials.Set("password", *pass)
	} else {
		credentials.Set("password", "")
	}

	// rebuild the context in case the daemon restarted or flipped schemes
	c.ResetContext()

	res, err := c.do(ctx, callSpec{
		namespace: "auth",
		method:    "login",
		verb:      http.MethodPost,
		data:      credentials,
		noAuth:    true,
	})
	if err != nil {
		return err
	}
	if res.Text() != "Ok." {
		c.logger.Debug().Str("username", user).Msg("login failed")
		return &LoginFailedError{Username: user, Detail: res.Text()}
	}

	cookie := sessionCookie(res.cookies)
	if cookie == "" {
		c.logger.Debug().Str("username", user).Msg("no session cookie in login response")
		return &LoginFailedError{Username: user, Detail: "daemon did not issue a session cookie"}
	}
	c.setCookie(cookie)
	c.logger.Debug().Str("username", user).Msg("login successful")

	if c.opts.strictVersionCheck {
		return c.checkSupportedVersion(ctx)
	}
	return nil
}

// checkSupportedVersion verifies the connected daemon against the registry of
// releases this client is written for. Runs already authenticated, so it
// cannot recurse into another login.
func (c *Client) checkSupportedVersion(ctx context.Context) error {
	appVersion, err := c.AppVersion(ctx)
	if err != nil {
		return err
	}
	apiVersion, err := c.webAPIVersion(ctx)
	if err != nil {
		return err
	}
	if !IsAppVersionSupported(appVersion) || !IsAPIVersionSupported(apiVersion) {
		return &UnsupportedVersionError{AppVersion: appVersion, APIVersion: apiVersion}
	}
	return nil
}

// Logout ends the session. The logout endpoint is only called when a live
// probe confirms the session is still valid, so an already-expired session
// does not surface a pointless error. The local session state is cleared
// either way.
func (c *Client) Logout(ctx context.Context) error {
	loggedIn := c.IsLoggedIn(ctx)
	if !loggedIn {
		c.ResetContext()
		return nil
	}

	_, err := c.do(ctx, callSpec{
		namespace: "auth",
		method:    "logout",
		verb:      http.MethodPost,
		noAuth:    true,
	})
	c.ResetContext()
	return err
}

// ensureAuthenticated logs in with the stored credentials when no session
// cookie is present.
func (c *Client) ensureAuthenticated(ctx context.Context) error {
	if c.cookie() != "" {
		return nil
	}
	c.logger.Debug().Msg("not logged in, attempting login")
	return c.Login(ctx, "", "")
}

// sessionCookie extracts the daemon's auth cookie from a login response.
func sessionCookie(cookies []*http.Cookie) string {
	for _, ck := range cookies {
		if ck.Name == "SID" {
			return ck.Value
		}
	}
	return ""
}

package qbitapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// BuildInfo describes the libraries the connected daemon was built against.
type BuildInfo struct {
	Qt         string `json:"qt"`
	Libtorrent string `json:"libtorrent"`
	Boost      string `json:"boost"`
	OpenSSL    string `json:"openssl"`
	Zlib       string `json:"zlib"`
	Bitness    int    `json:"bitness"`
}

// Preferences is the daemon's settings blob. It is deliberately a free-form
// map: the key set varies wildly across daemon versions.
type Preferences map[string]any

// AppVersion returns the daemon's application version, e.g. "v4.6.6".
func (c *Client) AppVersion(ctx context.Context) (string, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "app", Method: "version", Verb: http.MethodGet,
	})
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// WebAPIVersion returns the daemon's Web API version, e.g. "2.9.3". The value
// is cached until the next context reset since the version gate consults it
// on every bounded call.
func (c *Client) WebAPIVersion(ctx context.Context) (string, error) {
	return c.webAPIVersion(ctx)
}

// AppBuildInfo returns build information for the connected daemon.
func (c *Client) AppBuildInfo(ctx context.Context) (*BuildInfo, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "app", Method: "buildInfo", Verb: http.MethodGet,
		VersionIntroduced: "2.3",
	})
	if err != nil || res == nil {
		return nil, err
	}
	var info BuildInfo
	if err := res.JSON(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AppPreferences returns the daemon's current settings.
func (c *Client) AppPreferences(ctx context.Context) (Preferences, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "app", Method: "preferences", Verb: http.MethodGet,
	})
	if err != nil {
		return nil, err
	}
	var prefs Preferences
	if err := res.JSON(&prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// AppSetPreferences applies the given subset of settings.
func (c *Client) AppSetPreferences(ctx context.Context, prefs Preferences) error {
	encoded, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	_, err = c.Call(ctx, CallOptions{
		Namespace: "app", Method: "setPreferences", Verb: http.MethodPost,
		Data: url.Values{"json": {string(encoded)}},
	})
	return err
}

// AppDefaultSavePath returns the default download directory.
func (c *Client) AppDefaultSavePath(ctx context.Context) (string, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "app", Method: "defaultSavePath", Verb: http.MethodGet,
	})
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// AppShutdown asks the daemon to exit.
func (c *Client) AppShutdown(ctx context.Context) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "app", Method: "shutdown", Verb: http.MethodPost,
	})
	return err
}

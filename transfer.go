package qbitapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SpeedLimitsMode is the alternative-speed-limits toggle state.
type SpeedLimitsMode int

const (
	SpeedLimitsNormal      SpeedLimitsMode = 0
	SpeedLimitsAlternative SpeedLimitsMode = 1
)

// TransferInfo is the global transfer status from transfer/info.
type TransferInfo struct {
	ConnectionStatus  string `json:"connection_status"`
	DHTNodes          int    `json:"dht_nodes"`
	DownloadInfoSpeed int64  `json:"dl_info_speed"`
	DownloadInfoData  int64  `json:"dl_info_data"`
	DownloadRateLimit int64  `json:"dl_rate_limit"`
	UploadInfoSpeed   int64  `json:"up_info_speed"`
	UploadInfoData    int64  `json:"up_info_data"`
	UploadRateLimit   int64  `json:"up_rate_limit"`
}

// TransferInfo returns the global transfer status.
func (c *Client) TransferInfo(ctx context.Context) (*TransferInfo, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "transfer", Method: "info", Verb: http.MethodGet,
	})
	if err != nil {
		return nil, err
	}
	var info TransferInfo
	if err := res.JSON(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// TransferSpeedLimitsMode reports whether alternative speed limits are active.
func (c *Client) TransferSpeedLimitsMode(ctx context.Context) (SpeedLimitsMode, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "transfer", Method: "speedLimitsMode", Verb: http.MethodGet,
	})
	if err != nil {
		return SpeedLimitsNormal, err
	}
	n, err := res.Int()
	if err != nil {
		return SpeedLimitsNormal, err
	}
	return SpeedLimitsMode(n), nil
}

// TransferToggleSpeedLimitsMode flips between normal and alternative speed
// limits.
func (c *Client) TransferToggleSpeedLimitsMode(ctx context.Context) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "transfer", Method: "toggleSpeedLimitsMode", Verb: http.MethodPost,
	})
	return err
}

// TransferDownloadLimit returns the global download limit in bytes/second.
// Zero means unlimited.
func (c *Client) TransferDownloadLimit(ctx context.Context) (int64, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "transfer", Method: "downloadLimit", Verb: http.MethodGet,
	})
	if err != nil {
		return 0, err
	}
	return res.Int64()
}

// TransferSetDownloadLimit sets the global download limit in bytes/second.
// Zero means unlimited.
func (c *Client) TransferSetDownloadLimit(ctx context.Context, limit int64) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "transfer", Method: "setDownloadLimit", Verb: http.MethodPost,
		Data: url.Values{"limit": {strconv.FormatInt(limit, 10)}},
	})
	return err
}

// TransferUploadLimit returns the global upload limit in bytes/second. Zero
// means unlimited.
func (c *Client) TransferUploadLimit(ctx context.Context) (int64, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "transfer", Method: "uploadLimit", Verb: http.MethodGet,
	})
	if err != nil {
		return 0, err
	}
	return res.Int64()
}

// TransferSetUploadLimit sets the global upload limit in bytes/second. Zero
// means unlimited.
func (c *Client) TransferSetUploadLimit(ctx context.Context, limit int64) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "transfer", Method: "setUploadLimit", Verb: http.MethodPost,
		Data: url.Values{"limit": {strconv.FormatInt(limit, 10)}},
	})
	return err
}

// TransferBanPeers permanently bans the given peers, each "host:port".
func (c *Client) TransferBanPeers(ctx context.Context, peers ...string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "transfer", Method: "banPeers", Verb: http.MethodPost,
		Data:              url.Values{"peers": {strings.Join(peers, "|")}},
		VersionIntroduced: "2.3",
	})
	return err
}

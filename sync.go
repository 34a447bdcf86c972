package qbitapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// MainData is the incremental state snapshot from sync/maindata. With a
// response ID of 0 the daemon sends a full snapshot; passing the RID of a
// previous snapshot yields a delta against it.
type MainData struct {
	RID               int64                      `json:"rid"`
	FullUpdate        bool                       `json:"full_update"`
	Torrents          map[string]*Torrent        `json:"torrents"`
	TorrentsRemoved   []string                   `json:"torrents_removed"`
	Categories        map[string]TorrentCategory `json:"categories"`
	CategoriesRemoved []string                   `json:"categories_removed"`
	Tags              []string                   `json:"tags"`
	TagsRemoved       []string                   `json:"tags_removed"`
	ServerState       map[string]any             `json:"server_state"`
}

// TorrentPeers is the peer snapshot from sync/torrentPeers.
type TorrentPeers struct {
	RID        int64                  `json:"rid"`
	FullUpdate bool                   `json:"full_update"`
	ShowFlags  bool                   `json:"show_flags"`
	Peers      map[string]TorrentPeer `json:"peers"`
}

// TorrentPeer is one connected peer, keyed by "host:port" in TorrentPeers.
type TorrentPeer struct {
	IP           string  `json:"ip"`
	Port         int     `json:"port"`
	Client       string  `json:"client"`
	Connection   string  `json:"connection"`
	Country      string  `json:"country"`
	DownloadRate int64   `json:"dl_speed"`
	UploadRate   int64   `json:"up_speed"`
	Progress     float64 `json:"progress"`
	Relevance    float64 `json:"relevance"`
}

// SyncMainData returns the daemon state as a delta against the snapshot
// identified by rid, or a full snapshot for rid 0.
func (c *Client) SyncMainData(ctx context.Context, rid int64) (*MainData, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "sync", Method: "maindata", Verb: http.MethodGet,
		Params: url.Values{"rid": {strconv.FormatInt(rid, 10)}},
	})
	if err != nil {
		return nil, err
	}
	var data MainData
	if err := res.JSON(&data); err != nil {
		return nil, err
	}
	if !res.Simple() {
		for _, t := range data.Torrents {
			t.client = c
		}
	}
	return &data, nil
}

// SyncTorrentPeers returns the peers of one torrent as a delta against the
// snapshot identified by rid, or a full snapshot for rid 0.
func (c *Client) SyncTorrentPeers(ctx context.Context, hash string, rid int64) (*TorrentPeers, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "sync", Method: "torrentPeers", Verb: http.MethodGet,
		Params: url.Values{
			"hash": {hash},
			"rid":  {strconv.FormatInt(rid, 10)},
		},
		VersionIntroduced: "2.0.1",
	})
	if err != nil || res == nil {
		return nil, err
	}
	var peers TorrentPeers
	if err := res.JSON(&peers); err != nil {
		return nil, err
	}
	return &peers, nil
}

package qbitapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Torrent is one entry from torrents/info. In rich mode (the default) the
// record is bound to the client that produced it, so management calls can be
// made directly on the record.
type Torrent struct {
	Hash         string  `json:"hash"`
	Name         string  `json:"name"`
	State        string  `json:"state"`
	Category     string  `json:"category"`
	Tags         string  `json:"tags"`
	SavePath     string  `json:"save_path"`
	ContentPath  string  `json:"content_path"`
	Size         int64   `json:"size"`
	Downloaded   int64   `json:"downloaded"`
	Uploaded     int64   `json:"uploaded"`
	Progress     float64 `json:"progress"`
	Ratio        float64 `json:"ratio"`
	DownloadRate int64   `json:"dlspeed"`
	UploadRate   int64   `json:"upspeed"`
	ETA          int64   `json:"eta"`
	NumSeeds     int     `json:"num_seeds"`
	NumLeechs    int     `json:"num_leechs"`
	AddedOn      int64   `json:"added_on"`
	CompletionOn int64   `json:"completion_on"`
	Tracker      string  `json:"tracker"`

	client *Client
}

// TagList splits the comma-separated tag field into individual tags.
func (t *Torrent) TagList() []string {
	if t.Tags == "" {
		return nil
	}
	parts := strings.Split(t.Tags, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// IsComplete reports whether the torrent finished downloading.
func (t *Torrent) IsComplete() bool {
	return t.Progress >= 1.0
}

func (t *Torrent) bound() (*Client, error) {
	if t.client == nil {
		return nil, ErrNotBound
	}
	return t.client, nil
}

// Pause pauses this torrent.
func (t *Torrent) Pause(ctx context.Context) error {
	c, err := t.bound()
	if err != nil {
		return err
	}
	return c.TorrentsPause(ctx, t.Hash)
}

// Resume resumes this torrent.
func (t *Torrent) Resume(ctx context.Context) error {
	c, err := t.bound()
	if err != nil {
		return err
	}
	return c.TorrentsResume(ctx, t.Hash)
}

// Delete removes this torrent, optionally deleting its files.
func (t *Torrent) Delete(ctx context.Context, deleteFiles bool) error {
	c, err := t.bound()
	if err != nil {
		return err
	}
	return c.TorrentsDelete(ctx, deleteFiles, t.Hash)
}

// Recheck forces a hash recheck of this torrent.
func (t *Torrent) Recheck(ctx context.Context) error {
	c, err := t.bound()
	if err != nil {
		return err
	}
	return c.TorrentsRecheck(ctx, t.Hash)
}

// SetCategory moves this torrent to the given category.
func (t *Torrent) SetCategory(ctx context.Context, category string) error {
	c, err := t.bound()
	if err != nil {
		return err
	}
	return c.TorrentsSetCategory(ctx, category, t.Hash)
}

// AddTags adds the given tags to this torrent.
func (t *Torrent) AddTags(ctx context.Context, tags ...string) error {
	c, err := t.bound()
	if err != nil {
		return err
	}
	return c.TorrentsAddTags(ctx, tags, t.Hash)
}

// TorrentList is the structured-list shape for torrents/info.
type TorrentList []*Torrent

// TorrentProperties is the detail record from torrents/properties.
type TorrentProperties struct {
	SavePath       string  `json:"save_path"`
	CreationDate   int64   `json:"creation_date"`
	PieceSize      int64   `json:"piece_size"`
	Comment        string  `json:"comment"`
	TotalWasted    int64   `json:"total_wasted"`
	TotalUploaded  int64   `json:"total_uploaded"`
	TotalSize      int64   `json:"total_size"`
	SeedingTime    int64   `json:"seeding_time"`
	ShareRatio     float64 `json:"share_ratio"`
	AdditionDate   int64   `json:"addition_date"`
	CompletionDate int64   `json:"completion_date"`
	NumConnections int     `json:"nb_connections"`
}

// TorrentTracker is one entry from torrents/trackers.
type TorrentTracker struct {
	URL      string `json:"url"`
	Status   int    `json:"status"`
	Tier     int    `json:"tier"`
	NumPeers int    `json:"num_peers"`
	Message  string `json:"msg"`
}

// TorrentFile is one entry from torrents/files.
type TorrentFile struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Progress float64 `json:"progress"`
	Priority int     `json:"priority"`
}

// TorrentCategory is one entry from torrents/categories.
type TorrentCategory struct {
	Name     string `json:"name"`
	SavePath string `json:"savePath"`
}

// TorrentFilterOptions narrows torrents/info results.
type TorrentFilterOptions struct {
	Filter   string
	Category string
	Tag      string
	Sort     string
	Reverse  bool
	Limit    int
	Offset   int
	Hashes   []string
}

func (o TorrentFilterOptions) values() url.Values {
	params := url.Values{}
	if o.Filter != "" {
		params.Set("filter", o.Filter)
	}
	if o.Category != "" {
		params.Set("category", o.Category)
	}
	if o.Tag != "" {
		params.Set("tag", o.Tag)
	}
	if o.Sort != "" {
		params.Set("sort", o.Sort)
	}
	if o.Reverse {
		params.Set("reverse", "true")
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset != 0 {
		params.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(o.Hashes) > 0 {
		params.Set("hashes", strings.Join(o.Hashes, "|"))
	}
	return params
}

// AddTorrentOptions describes what torrents/add should ingest: remote URLs
// and/or local .torrent file contents, plus placement options.
type AddTorrentOptions struct {
	URLs     []string
	Files    []FileUpload
	SavePath string
	Category string
	Tags     []string
	Paused   bool
	Rename   string
	UpLimit  int64
	DlLimit  int64
}

// TorrentsInfo lists torrents, optionally filtered. Records are bound to the
// client unless simple-responses mode is active.
func (c *Client) TorrentsInfo(ctx context.Context, opts TorrentFilterOptions) (TorrentList, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "info", Verb: http.MethodGet,
		Params: opts.values(),
	})
	if err != nil {
		return nil, err
	}
	var list TorrentList
	if err := res.JSON(&list); err != nil {
		return nil, err
	}
	if !res.Simple() {
		for _, t := range list {
			t.client = c
		}
	}
	return list, nil
}

// TorrentProperties returns the detail record for one torrent.
func (c *Client) TorrentProperties(ctx context.Context, hash string) (*TorrentProperties, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "properties", Verb: http.MethodGet,
		Params: url.Values{"hash": {hash}},
	})
	if err != nil {
		return nil, err
	}
	var props TorrentProperties
	if err := res.JSON(&props); err != nil {
		return nil, err
	}
	return &props, nil
}

// TorrentTrackers returns the trackers of one torrent.
func (c *Client) TorrentTrackers(ctx context.Context, hash string) ([]TorrentTracker, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "trackers", Verb: http.MethodGet,
		Params: url.Values{"hash": {hash}},
	})
	if err != nil {
		return nil, err
	}
	var trackers []TorrentTracker
	if err := res.JSON(&trackers); err != nil {
		return nil, err
	}
	return trackers, nil
}

// TorrentFiles returns the files of one torrent.
func (c *Client) TorrentFiles(ctx context.Context, hash string) ([]TorrentFile, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "files", Verb: http.MethodGet,
		Params: url.Values{"hash": {hash}},
	})
	if err != nil {
		return nil, err
	}
	var files []TorrentFile
	if err := res.JSON(&files); err != nil {
		return nil, err
	}
	return files, nil
}

// TorrentsAdd submits new torrents by URL and/or file content. File contents
// are buffered, so a retried request re-sends them safely.
func (c *Client) TorrentsAdd(ctx context.Context, opts AddTorrentOptions) error {
	data := url.Values{}
	if len(opts.URLs) > 0 {
		data.Set("urls", strings.Join(opts.URLs, "\n"))
	}
	if opts.SavePath != "" {
		data.Set("savepath", opts.SavePath)
	}
	if opts.Category != "" {
		data.Set("category", opts.Category)
	}
	if len(opts.Tags) > 0 {
		data.Set("tags", strings.Join(opts.Tags, ","))
	}
	if opts.Paused {
		data.Set("paused", "true")
	}
	if opts.Rename != "" {
		data.Set("rename", opts.Rename)
	}
	if opts.UpLimit > 0 {
		data.Set("upLimit", strconv.FormatInt(opts.UpLimit, 10))
	}
	if opts.DlLimit > 0 {
		data.Set("dlLimit", strconv.FormatInt(opts.DlLimit, 10))
	}

	files := make([]FileUpload, 0, len(opts.Files))
	for _, f := range opts.Files {
		if f.Field == "" {
			f.Field = "torrents"
		}
		files = append(files, f)
	}

	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "add", Verb: http.MethodPost,
		Data: data, Files: files,
	})
	return err
}

// TorrentsDelete removes the given torrents, optionally deleting their files.
func (c *Client) TorrentsDelete(ctx context.Context, deleteFiles bool, hashes ...string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "delete", Verb: http.MethodPost,
		Data: url.Values{
			"hashes":      {strings.Join(hashes, "|")},
			"deleteFiles": {strconv.FormatBool(deleteFiles)},
		},
	})
	return err
}

// TorrentsPause pauses the given torrents.
func (c *Client) TorrentsPause(ctx context.Context, hashes ...string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "pause", Verb: http.MethodPost,
		Data: url.Values{"hashes": {strings.Join(hashes, "|")}},
	})
	return err
}

// TorrentsResume resumes the given torrents.
func (c *Client) TorrentsResume(ctx context.Context, hashes ...string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "resume", Verb: http.MethodPost,
		Data: url.Values{"hashes": {strings.Join(hashes, "|")}},
	})
	return err
}

// TorrentsRecheck forces a hash recheck of the given torrents.
func (c *Client) TorrentsRecheck(ctx context.Context, hashes ...string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "recheck", Verb: http.MethodPost,
		Data: url.Values{"hashes": {strings.Join(hashes, "|")}},
	})
	return err
}

// TorrentsReannounce reannounces the given torrents to their trackers.
func (c *Client) TorrentsReannounce(ctx context.Context, hashes ...string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "reannounce", Verb: http.MethodPost,
		Data:              url.Values{"hashes": {strings.Join(hashes, "|")}},
		VersionIntroduced: "2.0.2",
	})
	return err
}

// TorrentsSetCategory assigns the given torrents to a category.
func (c *Client) TorrentsSetCategory(ctx context.Context, category string, hashes ...string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "setCategory", Verb: http.MethodPost,
		Data: url.Values{
			"hashes":   {strings.Join(hashes, "|")},
			"category": {category},
		},
	})
	return err
}

// TorrentsAddTags adds tags to the given torrents.
func (c *Client) TorrentsAddTags(ctx context.Context, tags []string, hashes ...string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "addTags", Verb: http.MethodPost,
		Data: url.Values{
			"hashes": {strings.Join(hashes, "|")},
			"tags":   {strings.Join(tags, ",")},
		},
		VersionIntroduced: "2.3",
	})
	return err
}

// TorrentsCategories returns all configured categories keyed by name.
func (c *Client) TorrentsCategories(ctx context.Context) (map[string]TorrentCategory, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "categories", Verb: http.MethodGet,
		VersionIntroduced: "2.1.1",
	})
	if err != nil || res == nil {
		return nil, err
	}
	var categories map[string]TorrentCategory
	if err := res.JSON(&categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// TorrentsRenameFile renames a file within a torrent.
func (c *Client) TorrentsRenameFile(ctx context.Context, hash, oldPath, newPath string) error {
	_, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "renameFile", Verb: http.MethodPost,
		Data: url.Values{
			"hash":    {hash},
			"oldPath": {oldPath},
			"newPath": {newPath},
		},
		VersionIntroduced: "2.4",
	})
	return err
}

// TorrentsExport returns the .torrent file contents for a torrent.
func (c *Client) TorrentsExport(ctx context.Context, hash string) ([]byte, error) {
	res, err := c.Call(ctx, CallOptions{
		Namespace: "torrents", Method: "export", Verb: http.MethodGet,
		Params:            url.Values{"hash": {hash}},
		VersionIntroduced: "2.8.11",
	})
	if err != nil || res == nil {
		return nil, err
	}
	return res.Bytes(), nil
}

// TorrentsPropertiesBatch fetches the detail records for many torrents
// concurrently with bounded parallelism. Results are keyed by hash; a failed
// fetch fails the batch.
func (c *Client) TorrentsPropertiesBatch(ctx context.Context, hashes []string) (map[string]*TorrentProperties, error) {
	results := make(map[string]*TorrentProperties, len(hashes))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, hash := range hashes {
		hash := hash
		g.Go(func() error {
			props, err := c.TorrentProperties(ctx, hash)
			if err != nil {
				return err
			}
			mu.Lock()
			results[hash] = props
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

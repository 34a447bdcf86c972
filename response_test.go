package qbitapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCasts(t *testing.T) {
	t.Run("text and bytes", func(t *testing.T) {
		res := &Result{body: []byte("v4.6.6")}
		assert.Equal(t, "v4.6.6", res.Text())
		assert.Equal(t, []byte("v4.6.6"), res.Bytes())
	})

	t.Run("integers", func(t *testing.T) {
		res := &Result{body: []byte("1048576\n")}
		n, err := res.Int()
		require.NoError(t, err)
		assert.Equal(t, 1048576, n)

		n64, err := res.Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(1048576), n64)
	})

	t.Run("non-numeric body", func(t *testing.T) {
		res := &Result{body: []byte("not a number")}
		_, err := res.Int()
		var parseErr *ResponseParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("json", func(t *testing.T) {
		res := &Result{body: []byte(`{"dl_info_speed": 2048}`)}
		var info TransferInfo
		require.NoError(t, res.JSON(&info))
		assert.Equal(t, int64(2048), info.DownloadInfoSpeed)
	})

	t.Run("malformed json is never defaulted", func(t *testing.T) {
		res := &Result{body: []byte(`{"truncated":`)}
		var info TransferInfo
		err := res.JSON(&info)
		var parseErr *ResponseParseError
		require.ErrorAs(t, err, &parseErr)
		assert.NotNil(t, parseErr.Unwrap())
	})

	t.Run("simple json", func(t *testing.T) {
		res := &Result{body: []byte(`[{"hash":"abc"}]`), simple: true}
		v, err := res.SimpleJSON()
		require.NoError(t, err)
		list, ok := v.([]any)
		require.True(t, ok)
		require.Len(t, list, 1)
		assert.True(t, res.Simple())
	})
}

func TestSimpleResponsesSkipBinding(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("torrents/info", `[{"hash":"abc","name":"demo"}]`)

	client := d.client(WithSimpleResponses())
	torrents, err := client.TorrentsInfo(context.Background(), TorrentFilterOptions{})
	require.NoError(t, err)
	require.Len(t, torrents, 1)

	err = torrents[0].Pause(context.Background())
	assert.ErrorIs(t, err, ErrNotBound)
}

func TestPerCallSimpleResponses(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("app/preferences", `{"dht": true, "max_connec": 500}`)

	client := d.client()
	res, err := client.Call(context.Background(), CallOptions{
		Namespace: "app", Method: "preferences", Verb: http.MethodGet,
		SimpleResponses: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Simple())

	v, err := res.SimpleJSON()
	require.NoError(t, err)
	prefs, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, prefs["dht"])
}

func TestBoundRecordMethods(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("torrents/info", `[{"hash":"abc","name":"demo","progress":1.0,"tags":"iso, linux"}]`)
	var pausedHashes string
	d.handle("torrents/pause", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		pausedHashes = r.PostForm.Get("hashes")
	})

	client := d.client()
	ctx := context.Background()
	torrents, err := client.TorrentsInfo(ctx, TorrentFilterOptions{})
	require.NoError(t, err)
	require.Len(t, torrents, 1)

	torrent := torrents[0]
	assert.True(t, torrent.IsComplete())
	assert.Equal(t, []string{"iso", "linux"}, torrent.TagList())

	require.NoError(t, torrent.Pause(ctx))
	assert.Equal(t, "abc", pausedHashes)
}

func TestRawBytesPassThrough(t *testing.T) {
	d := newTestDaemon(t)
	payload := []byte{0x00, 0x01, 0xfe, 0xff}
	d.handle("torrents/export", func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
	d.handleText("app/webapiVersion", "2.9.3")

	client := d.client()
	raw, err := client.TorrentsExport(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

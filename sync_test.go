package qbitapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMainData(t *testing.T) {
	d := newTestDaemon(t)
	d.handle("sync/maindata", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("rid"))
		w.Write([]byte(`{
			"rid": 7,
			"full_update": true,
			"torrents": {"abc": {"name": "demo", "state": "downloading"}},
			"categories": {"tv": {"name": "tv", "savePath": "/data/tv"}},
			"tags": ["iso"],
			"server_state": {"dl_info_speed": 512}
		}`))
	})

	client := d.client()
	data, err := client.SyncMainData(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), data.RID)
	assert.True(t, data.FullUpdate)
	require.Contains(t, data.Torrents, "abc")
	assert.Equal(t, "demo", data.Torrents["abc"].Name)
	assert.NotNil(t, data.Torrents["abc"].client, "delta records are bound like list records")
	assert.Equal(t, "/data/tv", data.Categories["tv"].SavePath)
	assert.Equal(t, []string{"iso"}, data.Tags)
}

func TestSyncMainDataDelta(t *testing.T) {
	d := newTestDaemon(t)
	d.handle("sync/maindata", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("rid"))
		w.Write([]byte(`{"rid": 8, "torrents_removed": ["abc"]}`))
	})

	client := d.client()
	data, err := client.SyncMainData(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, data.FullUpdate)
	assert.Equal(t, []string{"abc"}, data.TorrentsRemoved)
}

func TestSyncTorrentPeers(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("app/webapiVersion", "2.9.3")
	d.handle("sync/torrentPeers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("hash"))
		w.Write([]byte(`{
			"rid": 1,
			"full_update": true,
			"peers": {"1.2.3.4:6881": {"ip": "1.2.3.4", "port": 6881, "client": "qBittorrent/4.6.6"}}
		}`))
	})

	client := d.client()
	peers, err := client.SyncTorrentPeers(context.Background(), "abc", 0)
	require.NoError(t, err)
	require.Contains(t, peers.Peers, "1.2.3.4:6881")
	assert.Equal(t, 6881, peers.Peers["1.2.3.4:6881"].Port)
}

package qbitapi

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferInfo(t *testing.T) {
	d := newTestDaemon(t)
	d.handleText("transfer/info",
		`{"connection_status":"connected","dht_nodes":300,"dl_info_speed":1024,"up_rate_limit":0}`)

	client := d.client()
	info, err := client.TransferInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connected", info.ConnectionStatus)
	assert.Equal(t, 300, info.DHTNodes)
	assert.Equal(t, int64(1024), info.DownloadInfoSpeed)
}

func TestTransferSpeedLimitsMode(t *testing.T) {
	d := newTestDaemon(t)
	mode := SpeedLimitsNormal
	d.handle("transfer/speedLimitsMode", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, map[SpeedLimitsMode]string{
			SpeedLimitsNormal:      "0",
			SpeedLimitsAlternative: "1",
		}[mode])
	})
	d.handle("transfer/toggleSpeedLimitsMode", func(w http.ResponseWriter, r *http.Request) {
		mode = 1 - mode
	})

	client := d.client()
	ctx := context.Background()

	got, err := client.TransferSpeedLimitsMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, SpeedLimitsNormal, got)

	require.NoError(t, client.TransferToggleSpeedLimitsMode(ctx))

	got, err = client.TransferSpeedLimitsMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, SpeedLimitsAlternative, got)
}

func TestTransferLimits(t *testing.T) {
	d := newTestDaemon(t)
	limit := int64(0)
	d.handle("transfer/setDownloadLimit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1048576", r.PostForm.Get("limit"))
		limit = 1048576
	})
	d.handle("transfer/downloadLimit", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "0")
	})

	client := d.client()
	ctx := context.Background()

	got, err := client.TransferDownloadLimit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got, "zero means unlimited")

	require.NoError(t, client.TransferSetDownloadLimit(ctx, 1048576))
	assert.Equal(t, int64(1048576), limit)
}

func TestTransferBanPeersGated(t *testing.T) {
	tests := []struct {
		name       string
		apiVersion string
		wantCalled bool
	}{
		{"supported daemon", "2.3", true},
		{"older daemon", "2.2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDaemon(t)
			d.handleText("app/webapiVersion", tt.apiVersion)
			called := false
			d.handle("transfer/banPeers", func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "1.2.3.4:6881|5.6.7.8:6881", r.PostForm.Get("peers"))
				called = true
			})

			client := d.client()
			err := client.TransferBanPeers(context.Background(), "1.2.3.4:6881", "5.6.7.8:6881")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

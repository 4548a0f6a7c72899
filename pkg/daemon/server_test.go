package daemon_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenapp/lumen/pkg/api"
	"github.com/lumenapp/lumen/pkg/daemon"
	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/library/librarytest"
)

func startTestServer(t *testing.T, lib library.Library) (*http.Client, *daemon.Service) {
	t.Helper()

	tmpDir := t.TempDir()
	socketPath := filepath.Join(tmpDir, "lumen.sock")

	svc := daemon.NewService(lib, filepath.Join(tmpDir, "index.json"), daemon.ServiceOptions{})
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)

	srv, err := daemon.NewServer(daemon.Config{
		SocketPath: socketPath,
		DataDir:    filepath.Join(tmpDir, "data"),
	}, svc)
	require.NoError(t, err)

	go func() { _ = srv.Serve() }()
	t.Cleanup(func() { _ = srv.Close() })

	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 5 * time.Second,
	}
	return client, svc
}

func getJSON(t *testing.T, client *http.Client, path string, out any) int {
	t.Helper()
	resp, err := client.Get("http://lumend" + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestServerStatus(t *testing.T) {
	lib := librarytest.New()
	lib.Put(testAsset("a", 2021))

	client, svc := startTestServer(t, lib)
	waitForState(t, svc, daemon.StateReady)

	var status api.Status
	code := getJSON(t, client, "/v1/status", &status)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", status.State)
	assert.Equal(t, 1, status.Entries)
}

func TestServerTopByYear(t *testing.T) {
	lib := librarytest.New()
	lib.Put(testAsset("a", 2021))
	lib.Put(testAsset("b", 2021))
	lib.Put(testAsset("c", 2019))

	client, svc := startTestServer(t, lib)
	waitForState(t, svc, daemon.StateReady)

	var top api.TopResponse
	code := getJSON(t, client, "/v1/top?year=2021", &top)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, top.Items, 2)
	for _, item := range top.Items {
		assert.Equal(t, 2021, item.Asset.CreatedAt.Year())
	}

	var years api.YearsResponse
	code = getJSON(t, client, "/v1/years", &years)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int{2021, 2019}, years.Years)
}

func TestServerTopByPlace(t *testing.T) {
	lib := librarytest.New()
	lib.Put(testAsset("a", 2021))
	lib.Put(testAsset("b", 2022))
	lib.SetGroup(library.GroupPlace, "Rome", "a")

	client, svc := startTestServer(t, lib)
	waitForState(t, svc, daemon.StateReady)

	var top api.TopResponse
	code := getJSON(t, client, "/v1/top?place=Rome", &top)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, top.Items, 1)
	assert.Equal(t, "a", top.Items[0].ID)

	var places api.GroupsResponse
	code = getJSON(t, client, "/v1/places", &places)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"Rome"}, places.Names)
}

func TestServerTopRejectsBadSelectors(t *testing.T) {
	client, svc := startTestServer(t, librarytest.New())
	waitForState(t, svc, daemon.StateReady)

	var apiErr api.Error
	code := getJSON(t, client, "/v1/top", &apiErr)
	assert.Equal(t, http.StatusBadRequest, code)

	code = getJSON(t, client, "/v1/top?year=2021&place=Rome", &apiErr)
	assert.Equal(t, http.StatusBadRequest, code)

	code = getJSON(t, client, "/v1/top?year=nope", &apiErr)
	assert.Equal(t, http.StatusBadRequest, code)

	code = getJSON(t, client, "/v1/top?year=2021&limit=-1", &apiErr)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServerRebuild(t *testing.T) {
	lib := librarytest.New()
	client, svc := startTestServer(t, lib)
	waitForState(t, svc, daemon.StateReady)

	lib.Put(testAsset("a", 2021))

	resp, err := client.Post("http://lumend/v1/rebuild", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	var rebuild api.RebuildResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rebuild))
	assert.True(t, rebuild.Started)

	waitForEntries(t, svc, 1)
}

func TestServerMetricsExposed(t *testing.T) {
	client, svc := startTestServer(t, librarytest.New())
	waitForState(t, svc, daemon.StateReady)

	resp, err := client.Get("http://lumend/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

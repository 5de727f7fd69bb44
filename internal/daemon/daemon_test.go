package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/site"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(`
export:
  bundle_dir: ` + filepath.Join(dir, "bundles") + `
  scratch_dir: ` + filepath.Join(dir, "scratch") + `
store:
  driver: sqlite
  dsn: ` + filepath.Join(dir, "builds.db") + `
events:
  enabled: true
  path: ` + filepath.Join(dir, "events.db") + `
http:
  addr: 127.0.0.1:0
metrics:
  enabled: true
`))
	require.NoError(t, err)
	return cfg
}

func seed(t *testing.T, d *Daemon, id string) {
	t.Helper()
	require.NoError(t, d.Components().Store.SaveBuild(context.Background(), &site.BuildData{
		Build: site.Build{ID: id, ProjectID: "p1", Version: 1},
		Pages: site.Pages{{ID: "home", Name: "Home", Path: "/"}, {ID: "about", Name: "About", Path: "/about"}},
	}))
}

func TestBuildWiresOptionalComponents(t *testing.T) {
	cfg := testConfig(t)
	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Service)
	assert.NotNil(t, c.Events)
	assert.NotNil(t, c.Prometheus)
	assert.Nil(t, c.Publisher)
	assert.Nil(t, c.Mirror)
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "mongo"
	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
}

func TestDaemonServesExportsEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	seed(t, d, "b1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()
	require.Eventually(t, func() bool { return d.GetStatus() == StatusRunning }, 5*time.Second, 10*time.Millisecond)

	base := "http://" + d.Addr()
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Post(base+"/api/exports", "application/json", strings.NewReader(`{"buildId":"b1","name":"site.zip"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	d.Service().Wait()

	resp, err = client.Get(base + "/cgi/static/ssg/site.zip")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "PK"))

	resp, err = client.Get(base + "/api/exports/site.zip/events")
	require.NoError(t, err)
	var history struct {
		Events []struct {
			Type string `json:"type"`
		} `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	_ = resp.Body.Close()
	require.Len(t, history.Events, 2)
	assert.Equal(t, "export.started", history.Events[0].Type)
	assert.Equal(t, "export.completed", history.Events[1].Type)

	resp, err = client.Get(base + "/metrics")
	require.NoError(t, err)
	metricsBody, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(metricsBody), "autobuilder_")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, d.Stop(stopCtx))
	require.NoError(t, <-done)
	assert.Equal(t, StatusStopped, d.GetStatus())
	require.NoError(t, d.Stop(stopCtx))
}

func TestStopWithoutStart(t *testing.T) {
	d, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NoError(t, d.Stop(context.Background()))
}

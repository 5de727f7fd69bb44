package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exportjob"
)

type stubService struct {
	jobs map[string]exportjob.Job
}

func (s stubService) Submit(_ context.Context, buildID, name string) (exportjob.Job, error) {
	return exportjob.Job{Name: name, BuildID: buildID, Status: exportjob.StatusPending}, nil
}

func (s stubService) Status(name string) (exportjob.Job, bool) {
	j, ok := s.jobs[name]
	return j, ok
}

func (s stubService) FilePath(name string) (string, bool) {
	j, ok := s.jobs[name]
	return j.FilePath, ok && j.Status == exportjob.StatusCompleted
}

func (s stubService) Jobs() []exportjob.Job {
	out := make([]exportjob.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Service == nil {
		opts.Service = stubService{jobs: map[string]exportjob.Job{}}
	}
	return New(config.HTTPConfig{Addr: "127.0.0.1:0"}, opts)
}

func TestRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip"), 0o600))
	svc := stubService{jobs: map[string]exportjob.Job{
		"site.zip": {Name: "site.zip", Status: exportjob.StatusCompleted, FilePath: path},
	}}
	h := newTestServer(t, Options{Service: svc}).Handler()

	cases := []struct {
		method, target string
		body           string
		status         int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/api/exports", "", http.StatusOK},
		{http.MethodGet, "/api/exports/site.zip", "", http.StatusOK},
		{http.MethodPost, "/api/exports", `{"buildId":"b1","name":"new.zip"}`, http.StatusAccepted},
		{http.MethodGet, "/cgi/static/ssg/site.zip", "", http.StatusOK},
		{http.MethodGet, "/cgi/static/ssg/", "", http.StatusBadRequest},
		{http.MethodGet, "/api/exports/site.zip/events", "", http.StatusNotFound},
		{http.MethodGet, "/metrics", "", http.StatusNotFound},
		{http.MethodDelete, "/api/exports/site.zip", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestMetricsMountedWhenConfigured(t *testing.T) {
	prom := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "autobuilder_exports_total 1\n")
	})
	h := newTestServer(t, Options{PrometheusHandler: prom}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "autobuilder_exports_total")
}

func TestStartServesAndStops(t *testing.T) {
	s := newTestServer(t, Options{})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	require.Error(t, s.Start(context.Background()), "second start must fail")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestStartFailsWhenAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	s := New(config.HTTPConfig{Addr: ln.Addr().String()}, Options{Service: stubService{}})
	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http startup failed")
}

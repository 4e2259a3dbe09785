package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	serving bool
	reqs    uint64
}

func (f *fakeServer) Serving() bool          { return f.serving }
func (f *fakeServer) Requests() uint64       { return f.reqs }
func (f *fakeServer) LastRequest() time.Time { return time.Time{} }
func (f *fakeServer) Endpoint() string       { return "tcp://*:7777" }

func TestControllerChecker(t *testing.T) {
	srv := &fakeServer{serving: true, reqs: 3}
	c := NewControllerChecker(srv)
	assert.Equal(t, "controller", c.Name())

	res := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, uint64(3), res.Details["requests"])

	srv.serving = false
	assert.Equal(t, StatusUnhealthy, c.Check(context.Background()).Status)
}

func TestRuntimeDirChecker(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, StatusHealthy, NewRuntimeDirChecker(dir).Check(context.Background()).Status)

	missing := filepath.Join(dir, "missing")
	assert.Equal(t, StatusDegraded, NewRuntimeDirChecker(missing).Check(context.Background()).Status)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Equal(t, StatusDegraded, NewRuntimeDirChecker(file).Check(context.Background()).Status)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "probe file must be removed")
}

func TestRegisterHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeServer{serving: true}
	r := gin.New()
	RegisterHTTPRoutes(r, NewAggregator(NewControllerChecker(srv)))

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	assert.Equal(t, http.StatusOK, get("/health/live").Code)
	assert.Equal(t, http.StatusOK, get("/health/ready").Code)

	rr := get("/health")
	require.Equal(t, http.StatusOK, rr.Code)
	var report HealthReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Contains(t, report.Checks, "controller")

	srv.serving = false
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/ready").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/health").Code)
}

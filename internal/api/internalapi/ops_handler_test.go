package internalapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	purged int64
	err    error
	calls  int
}

func (f *fakePurger) PurgeExpiredSessions(context.Context) (int64, error) {
	f.calls++
	return f.purged, f.err
}

type fakeLive map[string]int

func (f fakeLive) Stats() map[string]int { return f }

func newOpsRouter(purger SessionPurger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	RegisterOpsRoutes(router, "ops-secret", metricsHandler, purger, fakeLive{"sse": 2, "websocket": 1})
	return router
}

func TestOpsRoutesRequireToken(t *testing.T) {
	router := newOpsRouter(&fakePurger{})

	for _, path := range []string{"/internal/metrics", "/internal/live"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/internal/metrics", nil)
	req.Header.Set("X-Internal-Token", "ops-secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestLiveCountsClients(t *testing.T) {
	router := newOpsRouter(&fakePurger{})

	req := httptest.NewRequest(http.MethodGet, "/internal/live", nil)
	req.Header.Set("Authorization", "Bearer ops-secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Clients map[string]int `json:"clients"`
			Total   int            `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.Total)
	assert.Equal(t, 1, body.Data.Clients["websocket"])
}

func TestPurgeSessions(t *testing.T) {
	purger := &fakePurger{purged: 4}
	router := newOpsRouter(purger)

	req := httptest.NewRequest(http.MethodPost, "/internal/sessions/purge", nil)
	req.Header.Set("X-Internal-Token", "ops-secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"purged":4}}`, rec.Body.String())
	assert.Equal(t, 1, purger.calls)

	purger.err = errors.New("db down")
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/internal/sessions/purge", nil)
	req.Header.Set("X-Internal-Token", "ops-secret")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

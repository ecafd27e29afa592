package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"subsetlens/app"
	"subsetlens/internal"
	"subsetlens/internal/config"
	"subsetlens/internal/errors"
	"subsetlens/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionServer(t *testing.T) *Server {
	t.Helper()
	f := testkit.ClassificationFixture(t, testkit.DefaultGeneratorConfig())
	cfg := config.Default().Search
	cfg.Workers = 2
	explorer, err := app.NewExplorerService(f.Dataset, cfg, internal.Discard())
	require.NoError(t, err)
	return NewServer(explorer, gin.TestMode, internal.Discard()).WithSessions(app.NewSessionManager(), f.Dataset)
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w, out := do(t, s, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id, ok := out["id"].(string)
	require.True(t, ok)
	return id
}

func TestSessionRoutes(t *testing.T) {
	s := newSessionServer(t)
	id := createSession(t, s)
	base := "/api/sessions/" + id

	w, out := do(t, s, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, out["selected"])
	assert.Len(t, out["features"], 7)

	sig := testkit.SignalName(0)
	w, out = do(t, s, http.MethodPut, base+"/selection", gin.H{"selected": []string{sig}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{sig}, out["selected"])

	w, out = do(t, s, http.MethodPost, base+"/features/"+sig+"/bins", gin.H{"action": "increase"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["valid"])
	f := out["feature"].(map[string]any)
	assert.Equal(t, "Q", f["type"])
	assert.Len(t, f["thresholds"], 3)

	w, out = do(t, s, http.MethodPost, base+"/aggregate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["nodes"], 4)

	w, out = do(t, s, http.MethodPost, base+"/ratings", gin.H{"criterion": "errorPercent"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["ratings"], 6)

	w, _ = do(t, s, http.MethodPost, base+"/subsets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, s, http.MethodPut, base+"/filters", gin.H{"filters": []gin.H{{"type": "Q", "feature": sig, "min": 0, "max": 50}}})
	require.Equal(t, http.StatusOK, w.Code)
	w, out = do(t, s, http.MethodPost, base+"/aggregate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Less(t, out["size"].(float64), 500.0)
}

func TestSessionRouteErrors(t *testing.T) {
	s := newSessionServer(t)
	id := createSession(t, s)
	base := "/api/sessions/" + id

	w, out := do(t, s, http.MethodPut, base+"/selection", gin.H{"selected": []string{"missing"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, out["code"])

	w, out = do(t, s, http.MethodPost, base+"/features/"+testkit.SegmentName(0)+"/bins", gin.H{"action": "increase"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, errors.CodeKindMismatch, out["code"])

	w, _ = do(t, s, http.MethodPost, base+"/features/"+testkit.SignalName(0)+"/bins", gin.H{"action": "explode"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, s, http.MethodGet, "/api/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSession(t *testing.T) {
	s := newSessionServer(t)
	id := createSession(t, s)

	remove := func() int {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
		return w.Code
	}
	assert.Equal(t, http.StatusNoContent, remove())
	assert.Equal(t, http.StatusNotFound, remove())

	w, _ := do(t, s, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

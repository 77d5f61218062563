package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/fediarchive/internal/database"
)

func healthStatus(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := serve(router, http.MethodGet, "/health")

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		code, response := healthStatus(t, NewHealthController(setupTestDB(t), "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("reports a missing database", func(t *testing.T) {
		code, response := healthStatus(t, NewHealthController(nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db := setupTestDB(t)
		require.NoError(t, db.Close())

		code, response := healthStatus(t, NewHealthController(db, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("runs additional checks", func(t *testing.T) {
		controller := NewHealthController(setupTestDB(t), "")
		controller.AddCheck("blob_cache", func() error { return nil })
		controller.AddCheck("upload_dir", func() error { return errors.New("read-only file system") })

		code, response := healthStatus(t, controller)

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "ok", response.Checks["blob_cache"])
		assert.Equal(t, "error: read-only file system", response.Checks["upload_dir"])
	})
}

func TestRouter_Health(t *testing.T) {
	db, err := database.NewDatabase(t.TempDir() + "/router.db")
	require.NoError(t, err)
	defer db.Close()

	router := NewRouter(RouterConfig{Database: db, Importer: &stubImporter{}, Version: "9.9.9", UploadDir: t.TempDir()})

	w := serve(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "9.9.9")
	assert.Contains(t, w.Body.String(), `"upload_dir": "ok"`)

	w = serve(router, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/tasks/anything")
	assert.Equal(t, http.StatusNotFound, w.Code, "task routes need a queue")
}

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/inspect"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

func setupRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/stats", h.Stats)
	router.GET("/processes", h.ListProcesses)
	router.GET("/processes/:pid", h.GetProcess)
	router.GET("/processes/:pid/fds", h.ProcessFDs)
	return router
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestOptionalComponents(t *testing.T) {
	router := setupRouter(NewHandlers(process.NewReaper(nil), nil, nil, nil))

	assert.Equal(t, http.StatusServiceUnavailable, serve(router, "/stats").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(router, "/processes/1/fds").Code)

	w := serve(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":false`)
}

func TestEmptyTable(t *testing.T) {
	router := setupRouter(NewHandlers(process.NewReaper(nil), nil, nil, nil))

	w := serve(router, "/processes")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"processes":[],"count":0}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(router, "/processes/1").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, "/processes/0").Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("pid 9: %w", inspect.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("query: %w", process.ErrNoSuchProcess), http.StatusNotFound},
		{fmt.Errorf("pid 9: %w", inspect.ErrUnavailable), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func() error

func (f pingerFunc) Ping() error { return f() }

func systemRouter(h *SystemHandler) *gin.Engine {
	r := gin.New()
	r.GET("/system/info", h.GetSystemInfo)
	r.GET("/system/ping", h.Ping)
	r.GET("/health", h.Health)
	return r
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("1.2.3", nil)
	assert.False(t, h.startTime.IsZero())

	w := httptest.NewRecorder()
	systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system/info", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp envelope[SystemInfoResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Process Costing API", resp.Data.Name)
	assert.Equal(t, "1.2.3", resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)

	assert.Equal(t, "dev", NewSystemHandler("", nil).version)
}

func TestSystemHandler_Ping(t *testing.T) {
	w := httptest.NewRecorder()
	systemRouter(NewSystemHandler("", nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp envelope[PingResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pong", resp.Data.Message)
	assert.NotEmpty(t, resp.Data.Timestamp)
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         DatabasePinger
		wantStatus int
		wantBody   HealthResponse
	}{
		{"no database", nil, http.StatusOK, HealthResponse{Status: "ok", Database: "not configured"}},
		{"database up", pingerFunc(func() error { return nil }), http.StatusOK, HealthResponse{Status: "ok", Database: "ok"}},
		{
			"database down",
			pingerFunc(func() error { return errors.New("connection refused") }),
			http.StatusServiceUnavailable,
			HealthResponse{Status: "degraded", Database: "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			systemRouter(NewSystemHandler("", tt.db)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp envelope[HealthResponse]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus == http.StatusOK, resp.Success)
			assert.Equal(t, tt.wantBody, resp.Data)
		})
	}
}

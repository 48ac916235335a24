package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping() error { return p.err }

type pooledPinger struct {
	fakePinger
	stats sql.DBStats
}

func (p pooledPinger) Stats() (sql.DBStats, error) { return p.stats, nil }

func newSystemEngine(h *SystemHandler) *gin.Engine {
	engine := newTestEngine(uuid.Nil)
	engine.GET("/health", h.Health)
	engine.GET("/system/ping", h.Ping)
	engine.GET("/system/info", h.Info)
	return engine
}

func fixedClock(h *SystemHandler, now time.Time) {
	h.now = func() time.Time { return now }
}

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("cotiza", "1.2.0", nil)
	assert.False(t, h.startTime.IsZero())
	assert.Equal(t, "cotiza", h.name)
}

func TestSystemHandler_Health(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		db       Pinger
		status   int
		health   string
		database string
	}{
		{"database reachable", fakePinger{}, http.StatusOK, "healthy", "ok"},
		{"database down", fakePinger{err: errors.New("dial tcp: connection refused")}, http.StatusServiceUnavailable, "unhealthy", "error"},
		{"no database", nil, http.StatusOK, "healthy", "unconfigured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("cotiza", "test", tt.db)
			fixedClock(h, now)

			w := doJSON(newSystemEngine(h), http.MethodGet, "/health", nil)

			require.Equal(t, tt.status, w.Code)
			var got HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.health, got.Status)
			assert.Equal(t, tt.database, got.Database)
			assert.Equal(t, "2025-03-14T10:30:00Z", got.Time)
		})
	}
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("cotiza", "test", nil)
	fixedClock(h, time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC))

	w := doJSON(newSystemEngine(h), http.MethodGet, "/system/ping", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got PingResponse
	resp := decode(t, w, &got)
	assert.True(t, resp.Success)
	assert.Equal(t, "pong", got.Message)
	assert.Equal(t, "2025-03-14T10:30:00Z", got.Timestamp)
}

func TestSystemHandler_Info(t *testing.T) {
	h := NewSystemHandler("cotiza", "1.2.0", nil)
	h.startTime = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	fixedClock(h, h.startTime.Add(90*time.Minute))

	w := doJSON(newSystemEngine(h), http.MethodGet, "/system/info", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got SystemInfoResponse
	decode(t, w, &got)
	assert.Equal(t, "cotiza", got.Name)
	assert.Equal(t, "1.2.0", got.Version)
	assert.NotEmpty(t, got.GoVersion)
	assert.Equal(t, "1h30m0s", got.Uptime)
	assert.Nil(t, got.DBPool)
}

func TestSystemHandler_InfoReportsPool(t *testing.T) {
	db := pooledPinger{stats: sql.DBStats{MaxOpenConnections: 25, OpenConnections: 3, InUse: 1, Idle: 2, WaitCount: 7}}
	h := NewSystemHandler("cotiza", "1.2.0", db)

	w := doJSON(newSystemEngine(h), http.MethodGet, "/system/info", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got SystemInfoResponse
	decode(t, w, &got)
	require.NotNil(t, got.DBPool)
	assert.Equal(t, DBPool{MaxOpen: 25, Open: 3, InUse: 1, Idle: 2, WaitCount: 7}, *got.DBPool)
}

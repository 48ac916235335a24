package handler

import (
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping() error
}

// poolReporter is implemented by stores that expose connection pool counters
type poolReporter interface {
	Stats() (sql.DBStats, error)
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	startTime time.Time
	now       func() time.Time
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Database string `json:"database"`
}

// Health reports service liveness and database reachability.
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		Time:     h.now().UTC().Format(time.RFC3339),
		Database: "ok",
	}
	if h.db == nil {
		resp.Database = "unconfigured"
		c.JSON(http.StatusOK, resp)
		return
	}
	if err := h.db.Ping(); err != nil {
		logger.GetGinLogger(c).Warn("health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PingResponse is the body of GET /system/ping
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping answers pong.
// GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// SystemInfoResponse describes the running build
type SystemInfoResponse struct {
	Name      string  `json:"name"`
	Version   string  `json:"version"`
	GoVersion string  `json:"go_version"`
	Uptime    string  `json:"uptime"`
	DBPool    *DBPool `json:"db_pool,omitempty"`
}

// DBPool is a snapshot of the database connection pool
type DBPool struct {
	MaxOpen   int   `json:"max_open"`
	Open      int   `json:"open"`
	InUse     int   `json:"in_use"`
	Idle      int   `json:"idle"`
	WaitCount int64 `json:"wait_count"`
}

// Info returns the service name, version and uptime.
// GET /system/info
func (h *SystemHandler) Info(c *gin.Context) {
	resp := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    h.now().Sub(h.startTime).Round(time.Second).String(),
	}
	if pr, ok := h.db.(poolReporter); ok {
		if st, err := pr.Stats(); err == nil {
			resp.DBPool = &DBPool{
				MaxOpen:   st.MaxOpenConnections,
				Open:      st.OpenConnections,
				InUse:     st.InUse,
				Idle:      st.Idle,
				WaitCount: st.WaitCount,
			}
		}
	}
	h.Success(c, resp)
}

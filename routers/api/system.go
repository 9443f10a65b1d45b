package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"FrameForge-server/config"
	"FrameForge-server/service"
)

// GetConfig exposes the non-secret runtime configuration.
func (e *Env) GetConfig(c *gin.Context) {
	cfg := config.AppConfig
	c.JSON(http.StatusOK, gin.H{
		"data_root":  cfg.Data.Root,
		"subreddits": cfg.Harvest.Subreddits,
		"harvest": gin.H{
			"limit":     cfg.Harvest.Limit,
			"min_chars": cfg.Harvest.MinChars,
			"max_chars": cfg.Harvest.MaxChars,
			"sort":      cfg.Harvest.Sort,
			"timeframe": cfg.Harvest.Timeframe,
		},
		"scheduler": gin.H{
			"interval_seconds": cfg.Scheduler.IntervalSeconds,
			"concurrency":      cfg.Scheduler.Concurrency,
		},
		"stages": service.StageNames(),
	})
}

// GetLogs returns the most recent pipeline log entries, optionally filtered
// by project.
func (e *Env) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))
	entries, err := e.Logs.Tail(limit, c.Query("project_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventsWebSocket attaches the client to the live event stream. The
// connection is held open until the client goes away.
func (e *Env) EventsWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		config.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	detach := e.Events.Register(conn)
	defer detach()

	// The read loop only exists to notice the client closing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const sseHeartbeat = 15 * time.Second

// events streams refresh notifications for the caller as server-sent
// events until the client disconnects.
func (h *handlers) events(c *gin.Context) {
	if h.deps.Bus == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, ErrorEnvelope{
			Error: APIError{Message: "realtime events are disabled", Code: "unavailable"},
		})
		return
	}
	userID := currentUserID(c)
	ch, cancel := h.deps.Bus.Subscribe(userID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	h.log.Debug("event stream opened", "user_id", userID)
	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		}
	})
	h.log.Debug("event stream closed", "user_id", userID)
}

// Live stream handler.
//
// This file exposes the server-sent-events endpoint that pushes each accepted
// item to every open connection for the room, the submitter's own included
// (clients dedup by item ID). SSE was chosen over websockets because the
// channel is strictly server-to-client: writes already travel over POST.
package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/http/middleware"
)

// heartbeatInterval paces keep-alive events so idle connections survive
// proxies that reap quiet streams.
const heartbeatInterval = 30 * time.Second

// StreamItems handles GET /rooms/{code}/stream.
//
// The handshake requires a credential for the room in the path (via the
// Authorization header or, for EventSource clients, ?token=) and verifies the
// room still exists. After that the connection only ever receives:
//
//   - "item" events, one per accepted creation, payload = the item as JSON
//   - "ping" events on an interval, payload ignored by clients
//
// There is no replay: clients fetch the current ledger via the list endpoint
// before (or right after) subscribing, and reconcile by item ID. The stream
// ends when the client disconnects or the room outlives its TTL window and
// the server is shutting the request down.
func (h *Handlers) StreamItems(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "credential required")
		return
	}
	code := c.Param("code")
	if claims.RoomCode != code {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "credential is for a different room")
		return
	}
	room, err := h.roomSvc.Get(c.Request.Context(), code)
	if err != nil {
		failService(c, err)
		return
	}

	events, cancel := h.hub.Subscribe(room.Code)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	// Disable proxy buffering so events reach the client immediately.
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case item, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("item", item)
			return true
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})
}

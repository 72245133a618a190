package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
	"github.com/mark3748/helpdesk-sla/cmd/api/auth"
	"github.com/mark3748/helpdesk-sla/internal/jobs"
)

// Events streams batch events as server-sent events. Callers only see events
// of tenants their token grants.
func Events(rdb *redis.Client) gin.HandlerFunc {
	return events(rdb, 15*time.Second)
}

func events(rdb *redis.Client, heartbeat time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			app.AbortError(c, http.StatusServiceUnavailable, "events_unavailable", "events not available", nil)
			return
		}
		uVal, ok := c.Get("user")
		if !ok {
			app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "unauthenticated", nil)
			return
		}
		user, ok := uVal.(auth.AuthUser)
		if !ok {
			app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "invalid user", nil)
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}

		ctx := c.Request.Context()
		sub := rdb.Subscribe(ctx, jobs.Channel)
		defer sub.Close()
		ch := sub.Channel()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Fprint(c.Writer, ":hb\n\n")
				flusher.Flush()
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev jobs.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				if ev.Tenant != "" && !user.CanAccess(ev.Tenant) {
					continue
				}
				fmt.Fprintf(c.Writer, "event: %s\n", ev.Type)
				fmt.Fprintf(c.Writer, "data: %s\n\n", msg.Payload)
				flusher.Flush()
			}
		}
	}
}

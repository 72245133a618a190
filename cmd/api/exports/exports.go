package exports

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
	"github.com/mark3748/helpdesk-sla/cmd/api/auth"
)

// Get returns a presigned download URL for an archived batch. The key is
// the archive_key reported by an evaluation, sla/<tenant>/<batch>.json.
func Get(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.Archive == nil {
			app.AbortError(c, http.StatusServiceUnavailable, "archive_unavailable", "object storage not configured", nil)
			return
		}
		key := strings.TrimPrefix(c.Param("key"), "/")
		parts := strings.Split(key, "/")
		if len(parts) != 3 || parts[0] != "sla" || path.Clean(key) != key || !strings.HasSuffix(key, ".json") {
			app.AbortError(c, http.StatusBadRequest, "invalid_key", "unknown export key", nil)
			return
		}
		if u, ok := c.Get("user"); ok {
			if user, ok := u.(auth.AuthUser); ok && !user.CanAccess(parts[1]) {
				app.AbortError(c, http.StatusForbidden, "forbidden", "tenant not granted", nil)
				return
			}
		}
		ttl := a.Cfg.ExportURLTTL
		url, err := a.Archive.PresignGet(c.Request.Context(), key, parts[1]+"-"+parts[2], ttl)
		if err != nil {
			app.AbortError(c, http.StatusInternalServerError, "presign_failed", err.Error(), nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url, "expires_at": time.Now().Add(ttl).UTC()})
	}
}

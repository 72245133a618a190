package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
)

// AuthUser represents the authenticated caller.
type AuthUser struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Tenants []string `json:"tenants"`
	Roles   []string `json:"roles"`
}

func (u AuthUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role || r == "admin" {
			return true
		}
	}
	return false
}

// CanAccess reports whether the caller may read or evaluate tenant. Admins
// and callers without a tenants claim are unrestricted.
func (u AuthUser) CanAccess(tenant string) bool {
	if len(u.Tenants) == 0 || u.HasRole("admin") {
		return true
	}
	for _, t := range u.Tenants {
		if t == tenant {
			return true
		}
	}
	return false
}

// HMACKeyfunc validates tokens signed with secret. Other algorithms are
// rejected.
func HMACKeyfunc(secret string) jwt.Keyfunc {
	key := []byte(secret)
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	}
}

// Middleware performs JWT validation or bypass during tests.
func Middleware(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.Cfg.TestBypassAuth {
			c.Set("user", AuthUser{ID: "test-user", Name: "Test User", Roles: []string{"admin"}})
			c.Set("user_id", "test-user")
			c.Next()
			return
		}
		if a.Keyf == nil {
			app.AbortError(c, http.StatusInternalServerError, "auth_not_configured", "auth secret not configured", nil)
			return
		}
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "missing bearer token", nil)
			return
		}
		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), a.Keyf)
		if err != nil || !token.Valid {
			app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "invalid token", nil)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "invalid token", nil)
			return
		}
		u := AuthUser{
			ID:      getStringClaim(claims, "sub"),
			Name:    getStringClaim(claims, "name"),
			Roles:   getListClaim(claims, "roles"),
			Tenants: getListClaim(claims, "tenants"),
		}
		c.Set("user", u)
		c.Set("user_id", u.ID)
		c.Next()
	}
}

func getStringClaim(c jwt.MapClaims, key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func getListClaim(c jwt.MapClaims, key string) []string {
	var out []string
	switch g := c[key].(type) {
	case []interface{}:
		for _, v := range g {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, g...)
	case string:
		out = append(out, g)
	}
	return out
}

func current(c *gin.Context) (AuthUser, bool) {
	v, ok := c.Get("user")
	if !ok {
		return AuthUser{}, false
	}
	u, ok := v.(AuthUser)
	return u, ok
}

// Me returns the authenticated user.
func Me(c *gin.Context) {
	u, ok := current(c)
	if !ok {
		app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "unauthenticated", nil)
		return
	}
	c.JSON(http.StatusOK, u)
}

// RequireRole ensures the user has one of the required roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := current(c)
		if !ok {
			app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "unauthenticated", nil)
			return
		}
		for _, want := range roles {
			if u.HasRole(want) {
				c.Next()
				return
			}
		}
		app.AbortError(c, http.StatusForbidden, "forbidden", "forbidden", nil)
	}
}

// RequireTenant rejects callers whose token does not grant the :tenant
// route parameter.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := current(c)
		if !ok {
			app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "unauthenticated", nil)
			return
		}
		if !u.CanAccess(c.Param("tenant")) {
			app.AbortError(c, http.StatusForbidden, "forbidden", "tenant not granted", nil)
			return
		}
		c.Next()
	}
}

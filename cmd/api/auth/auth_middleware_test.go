package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	authpkg "github.com/mark3748/helpdesk-sla/cmd/api/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestMiddlewarePopulatesUserFromClaims(t *testing.T) {
	a := apppkg.NewApp(apppkg.Config{Env: "test"}, nil, authpkg.HMACKeyfunc("secret"), nil, nil, nil)
	a.R.GET("/me", authpkg.Middleware(a), authpkg.Me)

	token := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"sub":     "user-123",
		"name":    "User Name",
		"roles":   []string{"agent", "manager"},
		"tenants": "acme",
	})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	a.R.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var u authpkg.AuthUser
	if err := json.Unmarshal(rr.Body.Bytes(), &u); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if u.ID != "user-123" || u.Name != "User Name" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if len(u.Roles) != 2 || u.Roles[0] != "agent" || len(u.Tenants) != 1 || u.Tenants[0] != "acme" {
		t.Fatalf("claims not populated: %+v", u)
	}
}

func TestMiddlewareRejects(t *testing.T) {
	a := apppkg.NewApp(apppkg.Config{Env: "test"}, nil, authpkg.HMACKeyfunc("secret"), nil, nil, nil)
	a.R.GET("/me", authpkg.Middleware(a), authpkg.Me)

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "wrong secret", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "x"})},
		{name: "none alg", header: "Bearer " + sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "x"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			a.R.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestRequireTenant(t *testing.T) {
	a := apppkg.NewApp(apppkg.Config{Env: "test"}, nil, authpkg.HMACKeyfunc("secret"), nil, nil, nil)
	a.R.GET("/tenants/:tenant/rules", authpkg.Middleware(a), authpkg.RequireTenant(), authpkg.RequireRole("agent"),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	token := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "u", "roles": []string{"agent"}, "tenants": []string{"acme"}})
	viewer := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "u", "roles": []string{"viewer"}})
	cases := []struct {
		tenant, token string
		want          int
	}{
		{"acme", token, http.StatusOK},
		{"beta", token, http.StatusForbidden},
		{"beta", viewer, http.StatusForbidden},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tenants/"+tc.tenant+"/rules", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		a.R.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.tenant, tc.want, rr.Code)
		}
	}
}

func TestBypass(t *testing.T) {
	a := apppkg.NewApp(apppkg.Config{Env: "test", TestBypassAuth: true}, nil, nil, nil, nil, nil)
	a.R.GET("/tenants/:tenant", authpkg.Middleware(a), authpkg.RequireTenant(), func(c *gin.Context) { c.Status(http.StatusOK) })
	rr := httptest.NewRecorder()
	a.R.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tenants/any", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

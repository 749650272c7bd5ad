package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-reservations/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/secret", AuthMiddleware(), RequireRoles(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("user_id"), "role": c.GetString("role")})
	})
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:5000"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := protectedRouter("staff")
	staff, err := utils.GenerateToken(4, "staff", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateToken(4, "staff", -time.Minute)
	require.NoError(t, err)
	anonymous, err := utils.GenerateToken(0, "staff", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header map[string]string
		code   int
	}{
		{"missing token", "/secret", nil, http.StatusUnauthorized},
		{"garbage token", "/secret", map[string]string{"Authorization": "Bearer abc.def.ghi"}, http.StatusUnauthorized},
		{"expired token", "/secret", map[string]string{"Authorization": "Bearer " + expired}, http.StatusUnauthorized},
		{"no subject", "/secret", map[string]string{"Authorization": "Bearer " + anonymous}, http.StatusUnauthorized},
		{"bearer header", "/secret", map[string]string{"Authorization": "Bearer " + staff}, http.StatusOK},
		{"query token", "/secret?token=" + staff, nil, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(r, tc.path, tc.header)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestRequireRoles(t *testing.T) {
	tokenFor := func(role string) map[string]string {
		token, err := utils.GenerateToken(9, role, time.Hour)
		require.NoError(t, err)
		return map[string]string{"Authorization": "Bearer " + token}
	}

	staffOnly := protectedRouter("staff")
	assert.Equal(t, http.StatusOK, get(staffOnly, "/secret", tokenFor("staff")).Code)
	assert.Equal(t, http.StatusOK, get(staffOnly, "/secret", tokenFor("admin")).Code, "admin passes every check")
	assert.Equal(t, http.StatusForbidden, get(staffOnly, "/secret", tokenFor("customer")).Code)

	adminOnly := protectedRouter("admin")
	w := get(adminOnly, "/secret", tokenFor("staff"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "admin access required")

	// without the auth middleware there is no role at all
	bare := gin.New()
	bare.GET("/secret", RequireRoles("staff"), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, get(bare, "/secret", nil).Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)
	r := gin.New()
	r.GET("/book", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/book", nil).Code, "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/book", nil).Code)

	// every client IP has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/book", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, time.Second)
	start := time.Now()

	first := limiter.limiterFor("10.0.0.1", start)
	assert.Same(t, first, limiter.limiterFor("10.0.0.1", start.Add(time.Second)))

	limiter.limiterFor("10.0.0.2", start.Add(10*time.Second))
	assert.NotSame(t, first, limiter.limiterFor("10.0.0.1", start.Add(10*time.Second)))
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), CORSMiddlewares("https://floor.example.com"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://floor.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	pre := httptest.NewRecorder()
	r.ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
}

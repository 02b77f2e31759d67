package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth(testSecret))

	admin, err := IssueToken(testSecret, "ops", AdminRole, time.Hour)
	require.NoError(t, err)
	viewer, err := IssueToken(testSecret, "someone", "viewer", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "ops", AdminRole, -time.Minute)
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", "ops", AdminRole, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"admin", admin, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong role", viewer, http.StatusForbidden},
		{"expired", expired, http.StatusUnauthorized},
		{"wrong key", forged, http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, get(r, tt.token).Code)
		})
	}
}

func TestAuth_NoSecret(t *testing.T) {
	_, err := IssueToken("", "ops", AdminRole, time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	// A token signed with any key must not pass when no secret is set
	token, err := IssueToken("guessed", "ops", AdminRole, time.Hour)
	require.NoError(t, err)
	r := newEngine(Auth(""))
	assert.Equal(t, http.StatusServiceUnavailable, get(r, token).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "").Code)
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(0.001, 2))

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "").Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, time.Minute)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestCORS_Preflight(t *testing.T) {
	r := newEngine(CORS())
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

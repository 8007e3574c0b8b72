package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIssueAndParseToken(t *testing.T) {
	tok, exp, err := IssueToken("s3cret", 12, "256700000001", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := ParseToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = ParseToken("other", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	tok, _, err := IssueToken("s3cret", 12, "", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("s3cret", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireAuth("s3cret"), func(c *gin.Context) {
		id, _ := PlayerID(c)
		c.JSON(http.StatusOK, gin.H{"player_id": id})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	r := authRouter()
	tok, _, err := IssueToken("s3cret", 5, "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "Bearer " + tok, "", http.StatusOK},
		{"query", "", "?access_token=" + tok, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWebSocketCORSCheck(t *testing.T) {
	cfg := &config.Config{Environment: "production", FrontendURL: "https://play.example.com"}
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(origin string) int {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("https://play.example.com"))
	assert.Equal(t, http.StatusOK, do("https://playmatatu.com"))
	assert.Equal(t, http.StatusForbidden, do("https://evil.example.com"))
	assert.Equal(t, http.StatusBadRequest, do(""))
}

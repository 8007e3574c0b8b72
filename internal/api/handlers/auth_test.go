package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter(players PlayerStore) (*gin.Engine, *config.Config) {
	cfg := &config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour}
	r := gin.New()
	r.POST("/auth/register", Register(players, cfg))
	r.POST("/auth/login", Login(players, cfg))
	return r, cfg
}

func TestRegisterAndLogin(t *testing.T) {
	players := newFakePlayers()
	r, cfg := authRouter(players)

	w := do(r, http.MethodPost, "/auth/register", map[string]string{
		"phone": "0700 123 456", "pin": "1234", "display_name": "Nakato",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)

	var token string
	require.NoError(t, json.Unmarshal(body["token"], &token))
	id, err := middleware.ParseToken(cfg.JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.NotContains(t, string(body["player"]), "pin_hash")

	p, err := players.GetPlayerByPhone(t.Context(), "256700123456")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", p.PINHash.String)

	w = do(r, http.MethodPost, "/auth/login", map[string]string{"phone": "+256700123456", "pin": "1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []int{1}, players.touched)
}

func TestRegisterValidation(t *testing.T) {
	players := newFakePlayers()
	r, _ := authRouter(players)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/auth/register",
		map[string]string{"phone": "0700123456", "pin": "1234"}).Code)

	tests := []struct {
		name string
		body interface{}
		code int
	}{
		{"bad json", `{"phone":`, http.StatusBadRequest},
		{"bad phone", map[string]string{"phone": "12345", "pin": "1234"}, http.StatusBadRequest},
		{"short pin", map[string]string{"phone": "0700999999", "pin": "123"}, http.StatusBadRequest},
		{"letters in pin", map[string]string{"phone": "0700999999", "pin": "12a4"}, http.StatusBadRequest},
		{"duplicate", map[string]string{"phone": "256700123456", "pin": "9999"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, do(r, http.MethodPost, "/auth/register", tt.body).Code)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	players := newFakePlayers()
	r, _ := authRouter(players)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/auth/register",
		map[string]string{"phone": "0700123456", "pin": "1234"}).Code)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/auth/login",
		map[string]string{"phone": "0700123456", "pin": "4321"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/auth/login",
		map[string]string{"phone": "0700000000", "pin": "1234"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/auth/login",
		map[string]string{"phone": "0700123456"}).Code)

	players.byPhone["256700123456"].IsActive = false
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/auth/login",
		map[string]string{"phone": "0700123456", "pin": "1234"}).Code)
	assert.Empty(t, players.touched)
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"0700123456":      "256700123456",
		"700123456":       "256700123456",
		"+256 700 123456": "256700123456",
		"256700123456":    "256700123456",
		"312345678":       "256312345678",
		"12345":           "",
		"":                "",
		"0800123456789":   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizePhone(in), in)
	}
}

func TestValidPIN(t *testing.T) {
	assert.True(t, validPIN("0000"))
	assert.False(t, validPIN("000"))
	assert.False(t, validPIN("00000"))
	assert.False(t, validPIN("12 4"))
	assert.False(t, isDigits(""))
}

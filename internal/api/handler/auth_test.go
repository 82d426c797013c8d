package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *Handler {
	return &Handler{JWTSecret: []byte("test-secret")}
}

func TestJWT_RoundTrip(t *testing.T) {
	h := newTestHandler()

	token, err := h.generateJWT("u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := h.validateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	h := newTestHandler()
	other := &Handler{JWTSecret: []byte("different-secret")}

	token, err := other.generateJWT("u1")
	require.NoError(t, err)

	_, err = h.validateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	h := newTestHandler()
	claims := jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
		"iss":     "connectly-service",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.JWTSecret)
	require.NoError(t, err)

	_, err = h.validateToken(token)
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandler()

	router := gin.New()
	router.GET("/whoami", h.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(ctxUserIDKey)})
	})

	token, err := h.generateJWT("u1")
	require.NoError(t, err)

	// Bearer header.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"u1"`)

	// Query fallback, used by WebSocket handshakes.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami?token="+token, nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Missing token.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

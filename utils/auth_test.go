package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	_, err := GenerateToken("admin", "", time.Hour)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/ping", AuthMiddleware("secret"), func(c *gin.Context) {
		op, _ := c.Get("operator")
		c.JSON(http.StatusOK, gin.H{"operator": op})
	})

	valid, err := GenerateToken("admin", "secret", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("admin", "secret", -time.Hour)
	require.NoError(t, err)
	forged, err := GenerateToken("admin", "other", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid bearer", "Bearer " + valid, http.StatusOK},
		{"valid raw", valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"operator":"admin"}`, w.Body.String())
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "01012345678", NormalizePhone(" 010-1234-5678 "))
	assert.Equal(t, "+821012345678", NormalizePhone("+82 (10) 1234 5678"))
}

// controllers/auth.go
package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"stayhub-backend/config"
	"stayhub-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController issues operator tokens for the admin API.
type AuthController struct {
	Auth   config.AuthConfig
	Secure bool
	Logger *zap.Logger
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	username := strings.TrimSpace(input.Username)
	if ac.Auth.AdminPasswordHash == "" ||
		subtle.ConstantTimeCompare([]byte(username), []byte(ac.Auth.AdminUsername)) != 1 ||
		!utils.CheckPasswordHash(input.Password, ac.Auth.AdminPasswordHash) {
		ac.Logger.Warn("rejected login", zap.String("username", username), zap.String("ip", c.ClientIP()))
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	expiry := time.Duration(ac.Auth.JWTExpiryHours) * time.Hour
	token, err := utils.GenerateToken(username, ac.Auth.JWTSecret, expiry)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.SetCookie(
		"token",
		token,
		int(expiry.Seconds()),
		"/",
		"",
		ac.Secure,
		true,
	)

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int(expiry.Seconds()),
		"user":      gin.H{"username": username},
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	operator, _ := c.Get("operator")
	c.JSON(http.StatusOK, gin.H{"username": operator})
}

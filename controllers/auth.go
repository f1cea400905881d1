package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venue-admin-backend/utils"
)

type LoginInput struct {
	Password string `json:"password" binding:"required"`
}

// AuthController handles the single shared admin login.
type AuthController struct {
	passwordHash string
	jwtSecret    string
	expiry       time.Duration
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthController(passwordHash, jwtSecret string, expiry time.Duration, secureCookie bool, logger *zap.Logger) *AuthController {
	return &AuthController{
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		expiry:       expiry,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (a *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Password is required")
		return
	}

	if !utils.CheckPasswordHash(input.Password, a.passwordHash) {
		a.logger.Warn("admin login failed", zap.String("ip", c.ClientIP()))
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid password")
		return
	}

	token, err := utils.GenerateToken(a.jwtSecret, a.expiry)
	if err != nil {
		a.logger.Error("token generation failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.AdminCookieName, token, int(a.expiry.Seconds()), "/", "", a.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (a *AuthController) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.AdminCookieName, "", -1, "/", "", a.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Check is mounted behind the auth middleware, so reaching it means the session is valid.
func (a *AuthController) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

// utils/auth.go
package utils

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminCookieName = "admin-token"
	adminSubject    = "admin"
)

// Hash password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// Check password
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken issues the admin session token.
func GenerateToken(secret string, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  adminSubject,
		"role": "admin",
		"exp":  now.Add(expiry).Unix(),
		"iat":  now.Unix(),
	})
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if sub, _ := claims["sub"].(string); sub != adminSubject {
		return nil, errors.New("invalid token subject")
	}
	return claims, nil
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[0:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Auth middleware: accepts the admin cookie or an Authorization bearer token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, _ := c.Cookie(AdminCookieName)
		if tokenString == "" {
			tokenString = bearerToken(c.GetHeader("Authorization"))
		}
		if tokenString == "" {
			RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set("role", claims["role"])
		c.Next()
	}
}

// CronAuthorized checks the trigger bearer credential. An empty secret rejects everything.
func CronAuthorized(secret, authorization string) bool {
	if secret == "" {
		return false
	}
	got := bearerToken(authorization)
	return subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
}

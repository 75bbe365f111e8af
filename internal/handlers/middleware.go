package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/chronos-ua/chronos-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "userID"
	ctxEmail  = "userEmail"
)

// SessionClaims is what the external auth provider puts in its tokens. We
// only verify the signature and pull out identity; the auth protocol itself
// lives elsewhere.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthRequired validates the Bearer token (or, for SSE/WebSocket clients
// that cannot set headers, the access_token query parameter) and stores the
// user's id and e-mail on the context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenString = c.Query("access_token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.CreateErrorResponse("MISSING_TOKEN", "authorization required"))
			return
		}

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.CreateErrorResponse("INVALID_TOKEN", "token validation failed"))
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id from the context.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserEmail returns the authenticated user's e-mail from the context.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

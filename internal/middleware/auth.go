package middleware

import (
	"net/http"
	"strings"

	"geomark/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// AuthRequired rejects requests that do not carry a valid bearer token.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"msg":     "Authorization token is missing or invalid.",
			})
			return
		}
		if !setIdentity(c, claims) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"msg":     "Invalid token claims.",
			})
			return
		}
		c.Next()
	}
}

// AuthOptional resolves the caller's identity when a valid bearer token is
// present and lets the request through anonymously otherwise. Used by
// comment creation, which accepts guests.
func AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller's id and username, if any.
func CurrentUser(c *gin.Context) (uint, string, bool) {
	id, ok := c.Get(UserIDKey)
	if !ok {
		return 0, "", false
	}
	name, _ := c.Get(UsernameKey)
	username, _ := name.(string)
	return id.(uint), username, true
}

func bearerClaims(c *gin.Context) (*utils.TokenClaims, bool) {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return nil, false
	}
	claims, err := utils.ParseToken(strings.TrimPrefix(header, prefix))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *utils.TokenClaims) bool {
	userID, err := utils.UserIDFromClaims(claims)
	if err != nil || claims.Username == "" {
		return false
	}
	c.Set(UserIDKey, userID)
	c.Set(UsernameKey, claims.Username)
	return true
}

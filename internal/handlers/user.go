package handlers

import (
	"net/http"

	"geomark/internal/middleware"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me answers GET /api/users/me straight from the token claims; no database
// lookup is needed since username is immutable.
func (h *UserHandler) Me(c *gin.Context) {
	userID, username, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "msg": "Invalid token claims."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    gin.H{"id": userID, "username": username},
	})
}

package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"geomark/internal/middleware"
	"geomark/internal/utils"

	"github.com/gin-gonic/gin"
)

type AIHandler struct{}

func NewAIHandler() *AIHandler {
	return &AIHandler{}
}

type recommendRequest struct {
	Location  string `json:"location"`
	Interests string `json:"interests"`
	Budget    string `json:"budget"`
	Duration  string `json:"duration"`
}

// Recommend handles POST /api/ai/recommend. The recommendation logic itself
// is a stub: it returns canned suggestions shaped like the eventual AI
// response so the client integration can be built against it.
func (h *AIHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Request body must be JSON."})
		return
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Location is required."})
		return
	}

	if userID, _, ok := middleware.CurrentUser(c); ok {
		log.Printf("User %d requested recommendations for %q", userID, location)
	}

	spotType := "nature"
	if strings.Contains(strings.ToLower(req.Interests), "history") {
		spotType = "history"
	}
	cost := 300
	if b := utils.StringToInt(req.Budget); b > 0 && b <= 100 {
		cost = 100
	}

	recommendations := []gin.H{
		{
			"name":        fmt.Sprintf("Popular sight in %s", location),
			"description": "A well-known spot picked from your interests",
			"type":        spotType,
			"cost":        cost,
			"reason":      "Matches your budget and interests",
		},
		{
			"name":        fmt.Sprintf("Local food in %s", location),
			"description": "A must-try local specialty",
			"type":        "food",
			"cost":        50,
			"reason":      "Matches your food interest",
		},
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "recommendations": recommendations})
}

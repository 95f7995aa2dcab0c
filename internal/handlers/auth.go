package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"geomark/internal/store"
	"geomark/internal/utils"

	"github.com/gin-gonic/gin"
)

const minPasswordLength = 6

type AuthHandler struct {
	store *store.Store
}

func NewAuthHandler(s *store.Store) *AuthHandler {
	return &AuthHandler{store: s}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Request body must be JSON."})
		return
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Username and password are required."})
		return
	}
	if len(password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Password must be at least 6 characters."})
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "msg": "Registration failed due to a server error."})
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), username, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "msg": "Username already exists."})
			return
		}
		log.Printf("Failed to create user %q: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "msg": "Registration failed due to a server error."})
		return
	}

	tokens, err := utils.NewTokenPair(user.ID, user.Username)
	if err != nil {
		log.Printf("Failed to issue tokens for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "msg": "Registration failed due to a server error."})
		return
	}

	log.Printf("User %q (ID: %d) registered and token issued", user.Username, user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"msg":           "Registration successful.",
		"access_token":  tokens.Access,
		"refresh_token": tokens.Refresh,
		"user":          gin.H{"id": user.ID, "username": user.Username},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Request body must be JSON."})
		return
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)

	// Unknown user and wrong password answer identically.
	user, err := h.store.FindUserByUsername(c.Request.Context(), username)
	if err != nil || !utils.CheckPasswordHash(password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "msg": "Invalid username or password."})
		return
	}

	tokens, err := utils.NewTokenPair(user.ID, user.Username)
	if err != nil {
		log.Printf("Failed to issue tokens for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "msg": "Login failed due to a server error."})
		return
	}

	log.Printf("User %q (ID: %d) logged in and token issued", user.Username, user.ID)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"msg":           "Login successful.",
		"access_token":  tokens.Access,
		"refresh_token": tokens.Refresh,
		"user":          gin.H{"id": user.ID, "username": user.Username},
	})
}

package main

import (
	"log"
	"os"
	"strings"

	"geomark/internal/db"
	"geomark/internal/router"
	"geomark/internal/services"
	"geomark/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading env vars from system")
	}

	// Initialize Database
	db.Init()
	s := store.New(db.DB)

	// Initialize Gin
	r := gin.Default()

	// CORS for the map frontend
	corsCfg := cors.Config{
		AllowOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsCfg.AllowOrigins = strings.Split(origins, ",")
	}
	r.Use(cors.New(corsCfg))

	// Uploaded images are stored as bare filename tokens and served from here
	r.Static("/static/img", services.UploadDir())

	router.RegisterRoutes(r, s)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	log.Printf("GeoMark server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

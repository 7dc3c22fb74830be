package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/garpunkal/ColourWang-sub000/config"
	"github.com/garpunkal/ColourWang-sub000/handlers"
	"github.com/garpunkal/ColourWang-sub000/models"
	"github.com/garpunkal/ColourWang-sub000/routes"
	"github.com/garpunkal/ColourWang-sub000/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate the content pool models
	err = db.AutoMigrate(
		&models.Topic{},
		&models.PoolQuestion{},
		&models.QuestionColour{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	contentService := services.NewContentService(db)
	if err := contentService.SeedFromCSV(cfg.QuestionsCSV); err != nil {
		log.Printf("Question pool seeding skipped: %v", err)
	}

	registry := services.NewRegistry()
	generator := services.NewRoundGenerator(contentService)

	hub := services.NewHub()
	gameService := services.NewGameService(registry, generator, contentService, hub, redisClient, cfg)
	hub.Bind(gameService)
	go hub.Run()

	// Initialize handlers
	gameHandler := handlers.NewGameHandler(gameService, registry)
	contentHandler := handlers.NewContentHandler(contentService)

	// Setup Gin router
	router := gin.Default()
	routes.SetupRoutes(router, gameHandler, contentHandler, hub)

	// Start server
	addr := cfg.BindAddress + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/dealscope/warmap-backend-go/internal/api"
	"github.com/dealscope/warmap-backend-go/internal/config"
	"github.com/dealscope/warmap-backend-go/internal/cronjobs"
	"github.com/dealscope/warmap-backend-go/internal/database"
	"github.com/dealscope/warmap-backend-go/internal/geocode"
	"github.com/dealscope/warmap-backend-go/internal/handler"
	"github.com/dealscope/warmap-backend-go/internal/maplib"
	"github.com/dealscope/warmap-backend-go/internal/repository"
	"github.com/dealscope/warmap-backend-go/internal/service"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using environment")
	}

	cfg := config.Load()

	// Initialize database
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	if err := database.RunMigrations(database.GetDB()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Repositories
	db := database.GetDB()
	layerRepo := repository.NewLayerRepository(db)
	configRepo := repository.NewConfigurationRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	drawingRepo := repository.NewDrawingRepository(db)

	// The map surface is the browser's; the recorder stands in server-side
	// and carries camera state for clients to replay on attach
	surface := maplib.NewRecorder()

	// Services
	layerService := service.NewLayerService(layerRepo, sourceRepo)
	configService := service.NewConfigurationService(configRepo, layerService, surface)
	drawingService := service.NewDrawingService(drawingRepo, surface)

	resolver, err := geocode.NewGoogleResolver(cfg.MapsAPIKey)
	if err != nil {
		log.Fatal("Failed to create geocoder:", err)
	}
	geocodingService := service.NewGeocodingService(resolver, drawingService)

	// Maintenance jobs
	scheduler := cronjobs.Init(configService, drawingRepo)
	defer scheduler.Stop()

	// Router
	router := api.SetupRouter(cfg, api.Handlers{
		Layer:         handler.NewLayerHandler(layerService),
		Configuration: handler.NewConfigurationHandler(configService),
		Drawing:       handler.NewDrawingHandler(drawingService),
		Geocoding:     handler.NewGeocodingHandler(geocodingService),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

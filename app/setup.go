package app

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kunalverma/coursedeck/api"
	"github.com/kunalverma/coursedeck/config"
	"github.com/kunalverma/coursedeck/database"
	"github.com/kunalverma/coursedeck/router"
	"github.com/kunalverma/coursedeck/services/cron"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		log.Println("Check whether Postgres is running")
		return err
	}

	if err := store.Init(); err != nil {
		log.Println("Failed to run database migrations")
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		cronManager = cron.NewCronManager(store.GetDB())
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Printf("Warning: Failed to start cron jobs: %v", err)
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Setup Routes
	router.SetupRoutes(app, store)

	// Get the PORT & Start the Server
	return server.Run()
}

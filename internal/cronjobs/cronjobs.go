// Package cronjobs schedules the background maintenance the map subsystem
// needs: flushing buffered view counts and expiring abandoned drawing
// sessions.
package cronjobs

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dealscope/warmap-backend-go/internal/repository"
	"github.com/dealscope/warmap-backend-go/internal/service"
)

// staleSessionAge is how long an active drawing session may sit untouched
// before the sweep cancels it
const staleSessionAge = 24 * time.Hour

// Init starts the maintenance scheduler and returns it so the caller can
// Stop on shutdown
func Init(configService *service.ConfigurationService, drawingRepo *repository.DrawingRepository) *cron.Cron {
	c := cron.New()

	// Hourly: flush buffered configuration view counts
	if _, err := c.AddFunc("@hourly", func() {
		configService.FlushViewCounts()
	}); err != nil {
		log.Printf("Failed to schedule view count flush: %v", err)
	}

	// Hourly: cancel drawing sessions abandoned for a day
	if _, err := c.AddFunc("@hourly", func() {
		n, err := drawingRepo.ExpireStale(time.Now().UTC().Add(-staleSessionAge))
		if err != nil {
			log.Printf("Failed to expire drawing sessions: %v", err)
			return
		}
		if n > 0 {
			log.Printf("Expired %d stale drawing sessions", n)
		}
	}); err != nil {
		log.Printf("Failed to schedule drawing session expiry: %v", err)
	}

	c.Start()
	log.Println("Maintenance jobs scheduled")
	return c
}

package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Listings
		r.Route("/listings", func(r chi.Router) {
			r.Get("/", h.ListListings)
			r.Post("/", h.CreateListing)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetListing)
				r.Put("/", h.UpdateListing)
				r.Delete("/", h.DeleteListing)
				r.Get("/history", h.GetListingHistory)

				// Lifecycle actions
				r.Post("/zombie-flag", h.FlagZombie)
				r.Post("/resurrect", h.ResurrectListing)
				r.Post("/purgatory", h.EnterPurgatory)
				r.Post("/promote", h.PromoteListing)
				r.Post("/enqueue", h.EnqueueListing)
				r.Post("/offers/respond", h.RespondToOffer)
			})
		})

		// Gatekeeper previews
		r.Route("/gatekeeper", func(r chi.Router) {
			r.Post("/title", h.SanitizeTitle)
			r.Post("/description", h.EnforceMobileDescription)
			r.Post("/profit", h.PreviewProfit)
			r.Post("/str", h.ValidateSTR)
			r.Post("/str/estimate", h.EstimateSTR)
		})

		// Policy runs and previews
		r.Route("/policies", func(r chi.Router) {
			r.Post("/repricer/run", h.RunRepricer)
			r.Get("/repricer/preview", h.PreviewReprice)
			r.Post("/zombies/scan", h.RunZombieScan)
			r.Post("/relist/run", h.RunAutoRelist)
			r.Get("/relist/preview", h.PreviewAutoRelist)
			r.Get("/purgatory/donations", h.ScanDonations)
			r.Post("/campaigns/cleanup", h.RunCampaignCleanup)
			r.Post("/offers/run", h.RunOfferSnipe)
			r.Post("/photos/run", h.RunPhotoShuffle)
			r.Post("/pulse/run", h.RunStorePulse)
			r.Post("/pulse/revert", h.RunStorePulseRevert)
			r.Post("/snapshots/run", h.RunSnapshotCollector)
		})

		// Release queue
		r.Route("/queue", func(r chi.Router) {
			r.Get("/stats", h.QueueStats)
			r.Post("/release", h.ReleaseQueueBatch)
			r.Post("/entries/{id}/cancel", h.CancelQueueEntry)
		})

		// Job history
		r.Get("/jobs", h.RecentJobs)
	})

	return r
}

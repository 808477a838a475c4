package cli

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"retaildash/internal/api"
	"retaildash/internal/config"
	"retaildash/internal/service"
	"retaildash/internal/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analytics HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	handler := api.NewHandler(
		state.New(),
		service.NewProfilingService(),
		service.NewFilterService(),
		service.NewChartService(),
		service.NewInsightService(),
		service.NewExportService(),
	)
	handler.MaxUploadBytes = cfg.MaxUploadMB << 20
	handler.PreviewRows = cfg.PreviewRows

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// CORS for the dashboard frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("retaildash is running"))
	})
	handler.RegisterRoutes(r)

	log.WithFields(log.Fields{
		"addr":    cfg.Addr(),
		"origins": cfg.AllowedOrigins,
	}).Info("starting server")
	return http.ListenAndServe(cfg.Addr(), r)
}

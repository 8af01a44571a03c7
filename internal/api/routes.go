package api

import (
	"net/http"

	"github.com/oharel/talush/internal/config"
	"github.com/oharel/talush/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config) {
	routes.Register(
		mux,
		domain.Employees.Handler().Routes(),
		domain.Batches.Handler().Routes(),
		domain.Pipeline.Handler(cfg.API.GetMaxUploadSize()).Routes(),
	)
}

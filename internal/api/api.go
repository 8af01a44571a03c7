// Package api assembles the domain systems, route registration, and
// request middleware into the HTTP handler mounted at the API base path.
package api

import (
	"net/http"

	"github.com/oharel/talush/internal/config"
	"github.com/oharel/talush/internal/infrastructure"
	"github.com/oharel/talush/pkg/middleware"
)

// New wires all domain handlers behind the configured middleware stack.
// The returned handler expects the API base path to be stripped by the
// caller that mounts it.
func New(cfg *config.Config, infra *infrastructure.Infrastructure) http.Handler {
	runtime := NewRuntime(infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	var stack middleware.Stack
	stack.Use(middleware.Logger(runtime.Logger))
	stack.Use(middleware.CORS(&cfg.API.CORS))

	return stack.Apply(mux)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/core-companion/backend/internal/config"
	"github.com/zhouzirui/core-companion/backend/internal/handler/chat"
	middlewarePkg "github.com/zhouzirui/core-companion/backend/internal/middleware"
	chatService "github.com/zhouzirui/core-companion/backend/internal/service/chat"
	"github.com/zhouzirui/core-companion/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, serverCfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middlewarePkg.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middlewarePkg.CORS(serverCfg.AllowedOrigin))

	chatHandler := chat.New(chatSvc)

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		chatHandler.RegisterRoutes(api)
	})

	return r
}

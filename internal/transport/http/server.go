package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/locshare/internal/config"
	"github.com/vovakirdan/locshare/internal/core"
	"github.com/vovakirdan/locshare/internal/proto"
	"github.com/vovakirdan/locshare/internal/store"
)

// NewServer builds the HTTP server: JSON endpoints, the WebSocket endpoint and static assets.
// st is optional and only backs the per-participant lookups.
func NewServer(hub *core.Hub, st store.LocationStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(hub, st, logger)
	router.GET("/health", api.Health)
	router.GET("/stats", api.Stats)
	router.GET("/api/participants", api.Participants)
	router.GET("/api/participants/:id", api.Participant)

	if cfg.PublicDir != "" {
		router.NoRoute(gin.WrapH(stdhttp.FileServer(stdhttp.Dir(cfg.PublicDir))))
	}

	// The upgrade must reach the raw ResponseWriter; gin refuses to hijack after writing 101.
	mux := stdhttp.NewServeMux()
	mux.Handle(proto.WSPath, NewWSHandler(hub, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

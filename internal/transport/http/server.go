package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ramadan-assistant/internal/auth"
	"github.com/vovakirdan/ramadan-assistant/internal/config"
	"github.com/vovakirdan/ramadan-assistant/internal/core"
	"github.com/vovakirdan/ramadan-assistant/internal/web"
)

const sessionAudience = "ramadan-assistant-web"

// NewServer builds an HTTP server with the page, JSON API and WebSocket routes.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) (*stdhttp.Server, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", web.Static())

	tokens := newSessionTokens(&auth.JWTConfig{
		Secret:   []byte(cfg.SessionSecret),
		Issuer:   cfg.SessionIssuer,
		Audience: sessionAudience,
		TTL:      cfg.SessionTTL,
	})

	router.GET("/health", healthHandler)

	pages := NewPageHandlers(hub, tokens, cfg.PrayerTimes.City, logger)
	router.GET("/", pages.Index)
	router.POST("/tab", pages.SelectTab)
	router.POST("/night", pages.SelectNight)
	router.POST("/chat", pages.SubmitMessage)

	api := NewAPIHandlers(hub, tokens, logger)
	apiGroup := router.Group("/api")
	apiGroup.Use(CORSMiddleware(cfg.AllowedOrigins))
	{
		apiGroup.POST("/session", api.OpenSession)
		apiGroup.GET("/content", api.Content)
		apiGroup.POST("/ask", api.Ask)

		protected := apiGroup.Group("")
		protected.Use(SessionMiddleware(tokens, logger))
		{
			protected.GET("/state", api.GetState)
			protected.PUT("/state/tab", api.SelectTab)
			protected.PUT("/state/night", api.SelectNight)
			protected.PUT("/state/draft", api.UpdateDraft)
			protected.POST("/chat", api.SubmitMessage)
			protected.GET("/prayer-times", api.PrayerTimes)
		}
	}

	// The WebSocket route bypasses gin: Accept must hijack before anything is written.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, tokens, cfg.MaxMessageBytes, cfg.WSRateLimit, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}, nil
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

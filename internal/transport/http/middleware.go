package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ramadan-assistant/internal/core"
)

// ContextKeySessionID is the context key for storing the session id.
const ContextKeySessionID = "session_id"

// SessionMiddleware rejects requests without a valid session token.
func SessionMiddleware(tokens *sessionTokens, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := tokens.resolve(c.Request)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid session token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid session token", Code: core.ErrCodeUnauthorized})
			c.Abort()
			return
		}

		c.Set(ContextKeySessionID, sessionID)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// CORSMiddleware allows the JSON API to be called from the configured origins.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

func sessionIDFromContext(c *gin.Context) string {
	return c.GetString(ContextKeySessionID)
}

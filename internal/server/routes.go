package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	e.GET("/health", s.healthHandler)

	// AI chat routes. The caller identity arrives pre-authenticated from the
	// gateway as X-User-ID; this service performs no authentication itself.
	e.POST("/ai/chat", s.ChatHandler)
	e.GET("/ai/chat/ws", s.ChatSocketHandler)

	return e
}

// LoggerMiddleware attaches a request-scoped zerolog logger carrying the
// request id (propagated from the gateway, or minted here).
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and exposes the AI chat
pipeline over SSE and websocket endpoints.
*/
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"nutricoach/internal/geminiservice"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// ai is the chat orchestrator every AI route dispatches into.
	ai *geminiservice.Orchestrator

	// Echo is the underlying web framework instance.
	*echo.Echo
}

// NewServer initializes a new Server instance and returns a configured *http.Server.
// It reads configuration from environment variables and sets production-ready
// network timeouts.
func NewServer() (*http.Server, error) {
	// Attempt to parse port from environment; fallback to 8080 if not set or invalid.
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port == 0 {
		port = 8080
	}

	client, err := geminiservice.NewClientFromEnv()
	if err != nil {
		return nil, err
	}
	orchestrator, err := geminiservice.NewOrchestrator(client)
	if err != nil {
		return nil, err
	}

	newApp := &Server{
		port: port,
		ai:   orchestrator,
	}

	// Configure the standard library http.Server with the application's router.
	// WriteTimeout is deliberately absent: SSE and websocket responses stay
	// open for as long as the model streams.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", newApp.port),
		Handler:     newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout: time.Minute,             // Time to wait for the next request on keep-alive connections.
		ReadTimeout: 10 * time.Second,        // Maximum duration for reading the entire request.
	}

	return server, nil
}

package api

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
	"github.com/GoPlasmatic/Reframe-IDE/backend/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/gofiber/websocket/v2"
)

// RecentStore lists and forgets recently opened packages
type RecentStore interface {
	List(limit int) ([]*models.RecentPackage, error)
	Delete(id string) error
}

// Options configures the HTTP server
type Options struct {
	Templates    string
	Static       string
	LogDir       string
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server represents the HTTP API server
type Server struct {
	app     *fiber.App
	session *session.Session
	recent  RecentStore
	wsHub   *WebSocketHub
	opts    Options
}

// New creates a new API server. recent may be nil when history is disabled.
func New(sess *session.Session, recent RecentStore, opts Options) *Server {
	// Initialize HTML template engine
	engine := html.New(opts.Templates, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: errorHandler,
		BodyLimit:    opts.BodyLimit,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	// Middleware
	app.Use(recover.New())

	// Configure logger to write only to file
	if opts.LogDir == "" {
		app.Use(logger.New(logger.Config{
			Output: io.Discard,
		}))
	} else {
		accessLogPath := filepath.Join(opts.LogDir, "access.log")
		accessLogFile, err := os.OpenFile(accessLogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Printf("Warning: Failed to open access log file: %v", err)
			// If file creation fails, disable logging entirely by using io.Discard
			app.Use(logger.New(logger.Config{
				Output: io.Discard,
			}))
		} else {
			// Write access logs only to file, not to console
			app.Use(logger.New(logger.Config{
				Output: accessLogFile,
			}))
		}
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	server := &Server{
		app:     app,
		session: sess,
		recent:  recent,
		wsHub:   NewWebSocketHub(),
		opts:    opts,
	}

	sess.Subscribe(server.wsHub.HandleSessionEvent)

	server.setupRoutes()
	return server
}

// setupRoutes sets up all API routes
func (s *Server) setupRoutes() {
	// Home page with server-side rendering
	s.app.Get("/", s.renderIndex)

	// Static files
	if s.opts.Static != "" {
		s.app.Static("/static", s.opts.Static)
	}

	// Package events
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", s.HandleWebSocket)

	// API routes
	api := s.app.Group("/api")

	// Package lifecycle
	api.Get("/package", s.getPackage)
	api.Post("/package/open", s.openPackage)
	api.Post("/package/upload", s.uploadPackage)
	api.Post("/package/reload", s.reloadPackage)
	api.Delete("/package", s.closePackage)

	// Package model
	api.Get("/workflows", s.listWorkflows)
	api.Get("/scenarios", s.listScenarios)
	api.Get("/scenarios/:id/content", s.getScenarioContent)

	// Editor helpers
	api.Post("/format/detect", s.detectFormat)

	// Engine
	api.Post("/process", s.process)
	api.Post("/validate", s.validate)
	api.Post("/generate", s.generate)

	// History
	api.Get("/recent", s.listRecent)
	api.Delete("/recent/:id", s.deleteRecent)
}

// App exposes the fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	log.Printf("Starting HTTP server on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.wsHub.Stop()
	return s.app.Shutdown()
}

// Error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// errorHandler handles fiber errors
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}

// statusFor maps session and engine errors to HTTP status codes
func statusFor(err error) int {
	var parseErr *models.ParseError
	switch {
	case errors.Is(err, session.ErrNoPackage),
		errors.Is(err, session.ErrScenarioNotFound),
		errors.Is(err, session.ErrScenarioFileNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrNoDirectory), errors.As(err, &parseErr):
		return fiber.StatusBadRequest
	case errors.Is(err, session.ErrNoEngine):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return fiber.StatusRequestTimeout
	}
	return fiber.StatusBadGateway
}

func sendError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
}

// ============== Page Rendering ==============

func (s *Server) renderIndex(c *fiber.Ctx) error {
	var recent []*models.RecentPackage
	if s.recent != nil {
		list, err := s.recent.List(10)
		if err != nil {
			log.Printf("Warning: Failed to list recent packages: %v", err)
		}
		recent = list
	}

	return c.Render("index", fiber.Map{
		"Title":     "Reframe IDE",
		"Package":   summarize(s.session.Current(), s.session.RootDir()),
		"LastError": s.session.LastError(),
		"Recent":    recent,
	})
}

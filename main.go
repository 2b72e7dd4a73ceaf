package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPlasmatic/Reframe-IDE/backend/api"
	"github.com/GoPlasmatic/Reframe-IDE/backend/config"
	"github.com/GoPlasmatic/Reframe-IDE/backend/database"
	"github.com/GoPlasmatic/Reframe-IDE/backend/engine"
	"github.com/GoPlasmatic/Reframe-IDE/backend/scanner"
	"github.com/GoPlasmatic/Reframe-IDE/backend/session"
	"github.com/GoPlasmatic/Reframe-IDE/backend/watcher"
)

func main() {
	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	if err := os.MkdirAll(cfg.Logging.Dir, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logFile, err := os.OpenFile(cfg.Logging.AppLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	// Log to both console and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)

	log.Println("=== Reframe IDE Starting ===")
	log.Printf("Configuration: %+v", cfg)

	// Initialize database
	// cfg.Database.Path supports both SQLite and MySQL:
	// - SQLite: "./data/reframe-ide.db" or any path ending with .db
	// - MySQL: "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Println("Database initialized")

	recentRepo := database.NewRecentRepo(db, cfg.History.Limit)

	// Engine binary, optional
	var factory engine.Factory
	if cfg.Engine.Command != "" {
		factory = engine.NewFactory(engine.Options{
			Command:     cfg.Engine.Command,
			Args:        cfg.Engine.Args,
			WorkDir:     cfg.Engine.WorkDir,
			InitTimeout: cfg.Engine.InitTimeout,
			CallTimeout: cfg.Engine.CallTimeout,
		})
		log.Printf("Engine configured: %s", cfg.Engine.Command)
	} else {
		log.Println("Warning: No engine command configured, execution endpoints are disabled")
	}

	// Initialize package session
	filter := scanner.Filter{
		Extensions:  cfg.Collector.Extensions,
		ExcludeDirs: cfg.Collector.ExcludeDirs,
	}
	collector := scanner.New(filter, cfg.Collector.Concurrency)
	sess := session.New(collector, factory, recentRepo)
	log.Println("Package session initialized")

	// Initialize package watcher
	var watch *watcher.Watcher
	if cfg.Watcher.Enabled {
		watch, err = watcher.New(sess, filter, cfg.Watcher.Debounce)
		if err != nil {
			log.Fatalf("Failed to initialize package watcher: %v", err)
		}
		sess.Subscribe(watch.HandleEvent)
		watch.Start()
		defer watch.Stop()
		log.Println("Package watcher initialized and started")
	}

	// Initialize API server
	server := api.New(sess, recentRepo, api.Options{
		Templates:    cfg.Server.Templates,
		Static:       cfg.Server.Static,
		LogDir:       cfg.Logging.Dir,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	// Open the startup package once listeners are in place
	if dir := cfg.Package.OpenOnStart; dir != "" {
		go func() {
			if _, err := sess.OpenDir(context.Background(), dir); err != nil {
				log.Printf("Warning: Failed to open package %s: %v", dir, err)
			}
		}()
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("Reframe IDE is running on http://%s\n", addr)
		if err := server.Start(addr); err != nil {
			serverErrors <- err
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
		log.Println("Shutting down gracefully...")

		done := make(chan struct{})
		go func() {
			defer close(done)

			log.Println("Stopping HTTP server...")
			if err := server.Shutdown(); err != nil {
				log.Printf("Error shutting down server: %v", err)
			}

			if watch != nil {
				log.Println("Stopping package watcher...")
				watch.Stop()
			}

			// Remove the engine's scratch files
			log.Println("Releasing engine...")
			sess.Shutdown()

			log.Println("Closing database connections...")
			db.Close()
		}()

		select {
		case <-done:
			log.Println("Shutdown complete")
		case <-time.After(30 * time.Second):
			log.Println("Warning: Shutdown timed out")
		}
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/cors"

	"servicedir/internal/config"
	"servicedir/internal/graph"
	"servicedir/internal/handler"
	"servicedir/internal/hub"
	"servicedir/internal/metrics"
	"servicedir/internal/registry"
	"servicedir/internal/service"
)

func main() {
	// Command line flags
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "", "config file path (overrides discovery)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting servicedir server...")

	// Load configuration
	var (
		cfg        *config.Config
		loadedFrom string
		err        error
	)
	if *configPath != "" {
		cfg, loadedFrom, err = config.LoadFromPath(*configPath)
	} else {
		cfg, loadedFrom, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if loadedFrom != "" {
		log.Printf("Config loaded: %s", loadedFrom)
	} else {
		log.Println("No config file found, using defaults")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	metrics.Register()

	// Initialize the registry and event bus
	reg := registry.New()
	eventBus := service.NewEventBus()

	// Initialize the WebSocket hub
	wsHub := hub.New(cfg.WebSocket.WriteTimeout.Std())

	// Connect event bus to the hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			wsHub.Publish(event)
		}
	}()

	// Initialize services
	dirSvc := service.NewDirectoryService(reg, eventBus)

	// GraphQL schema
	schema, err := graph.NewSchema(reg)
	if err != nil {
		log.Fatalf("Failed to parse GraphQL schema: %v", err)
	}

	// Initialize HTTP handlers
	svcHandler := handler.NewServiceHandler(dirSvc)
	gqlHandler := handler.NewGraphQLHandler(schema)

	// Setup routes
	mux := http.NewServeMux()

	// Service endpoints (versioned REST)
	mux.HandleFunc("POST /api/v1/services", svcHandler.Create)
	mux.HandleFunc("GET /api/v1/services", svcHandler.List)
	mux.HandleFunc("GET /api/v1/services/{id}", svcHandler.Get)
	mux.HandleFunc("PUT /api/v1/services/{id}", svcHandler.Replace)
	mux.HandleFunc("PATCH /api/v1/services/{id}", svcHandler.Patch)
	mux.HandleFunc("DELETE /api/v1/services/{id}", svcHandler.Delete)

	// Auxiliary endpoints
	mux.HandleFunc("GET /health", svcHandler.Health)
	mux.HandleFunc("GET /debug/services", svcHandler.Debug)
	mux.Handle("GET /metrics", metrics.Handler())

	// WebSocket event feed
	mux.Handle("GET /ws", wsHub)

	// GraphQL endpoint
	mux.Handle("POST /graphql", gqlHandler)

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		cors.AllowAll().Handler,
		handler.Logger,
	)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

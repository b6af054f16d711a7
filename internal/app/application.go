package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"classboard/internal/api"
	"classboard/internal/auth"
	"classboard/internal/config"
	"classboard/internal/database"
	"classboard/internal/hub"
	"classboard/internal/router"
	"classboard/internal/websocket"
	pkgdatabase "classboard/pkg/database"
)

// Application wires the system together. Construction order follows the
// dependency chain: store -> registry -> channels -> router -> auth ->
// handlers -> HTTP server; shutdown runs it in reverse.
type Application struct {
	config     *config.Config
	store      *database.Store
	registry   *websocket.Registry
	broadcast  *hub.BroadcastChannel
	direct     *hub.DirectChannel
	router     *router.Router
	tokens     *auth.Service
	apiServer  *api.Server
	wsHandler  *websocket.Handler
	httpServer *http.Server
}

// NewApplication builds an application from configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbConfig := &pkgdatabase.Config{
		Path:            cfg.Database.Path,
		MaxConnections:  10,
		ConnMaxLifetime: cfg.Database.Timeout,
		ConnMaxIdleTime: cfg.Database.Timeout / 3,
	}

	store, err := database.NewStore(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	registry := websocket.NewRegistry()
	broadcast := hub.NewBroadcastChannel(registry)
	direct := hub.NewDirectChannel(registry)

	messageRouter := router.NewRouter(store, broadcast, direct, cfg.WebSocket.FramesPerMinute)

	tokens := auth.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	wsHandler := websocket.NewHandler(registry, messageRouter, tokens, websocket.Options{
		PingInterval:   cfg.WebSocket.PingInterval,
		ReadTimeout:    cfg.WebSocket.ReadTimeout,
		WriteTimeout:   cfg.WebSocket.WriteTimeout,
		SendBufferSize: cfg.WebSocket.BufferSize,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
	})

	apiServer := api.NewServer(store, messageRouter, registry, tokens)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws/qa", wsHandler.HandleClassSocket)
	mux.HandleFunc("/ws/chat", wsHandler.HandleChatSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      store,
		registry:   registry,
		broadcast:  broadcast,
		direct:     direct,
		router:     messageRouter,
		tokens:     tokens,
		apiServer:  apiServer,
		wsHandler:  wsHandler,
		httpServer: httpServer,
	}, nil
}

// Start begins serving. Returns once the server is accepting
// connections or startup has failed.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("starting classboard on %s", app.httpServer.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		_ = app.store.Close()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("classboard started")
		return nil
	case <-ctx.Done():
		_ = app.store.Close()
		return ctx.Err()
	}
}

// Stop shuts the application down: stop accepting connections, then
// close the store. Open realtime connections are dropped; clients are
// expected to reconnect and rejoin their channels.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("shutting down classboard")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := app.store.Close(); err != nil {
		log.Printf("store shutdown error: %v", err)
	}

	log.Printf("classboard shutdown complete")
	return nil
}

// GetAddr returns the listen address.
func (app *Application) GetAddr() string {
	return app.httpServer.Addr
}

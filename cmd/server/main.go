package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/equipdraw/equipdraw/internal/auth"
	"github.com/equipdraw/equipdraw/internal/canvas"
	"github.com/equipdraw/equipdraw/internal/config"
	"github.com/equipdraw/equipdraw/internal/engine"
	mw "github.com/equipdraw/equipdraw/internal/middleware"
	"github.com/equipdraw/equipdraw/internal/session"
	"github.com/equipdraw/equipdraw/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(ctx, cfg.StoreDriver, cfg.DSN())
	if err != nil {
		slog.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	authService := auth.NewService(db, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	canvasService := canvas.NewService(db)
	canvasHandler := canvas.NewHandler(canvasService)

	hub := session.NewHub(session.StoreLoader(db), session.StoreSaver(db),
		session.WithEngineOptions(engine.WithPasteOffset(cfg.PasteOffset, cfg.PasteOffset)),
	)
	go hub.Run()
	canvasService.SetLive(hub)

	if err := hub.StartAutosave(cfg.AutosaveSpec); err != nil {
		slog.Error("start autosave", "error", err)
		os.Exit(1)
	}

	wsHandler := session.NewHandler(hub, authService, canvasService, mw.OriginPatterns(cfg.AllowedOrigins))

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	canvasHandler.Routes(api)

	// WebSocket endpoint
	r.HandleFunc("/ws/canvas/{canvasId}", wsHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.AllowedOrigins)(r), // preflights never match a route
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty documents
		slog.Info("saving all canvases...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

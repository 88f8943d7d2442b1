package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/brainacademy/realtime/internal/auth"
	"github.com/brainacademy/realtime/internal/config"
	"github.com/brainacademy/realtime/internal/transport/http/handlers"
	"github.com/brainacademy/realtime/internal/transport/ws"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Realtime core: one hub per process.
	verifier := auth.NewVerifier(cfg.JWTSecret)
	hub := ws.NewHub(cfg.HistoryCapacity)
	go hub.Run()

	notifier := ws.NewNotifier(hub)
	liveEvents := ws.NewLiveEventService(hub)

	// Handlers
	wsHandler := ws.NewHandler(hub, verifier, cfg.AllowedOrigins)
	realtimeHandler := handlers.NewRealtimeHandler(hub, notifier, liveEvents)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket endpoints
	r.Get("/ws", wsHandler.General)
	r.Get("/ws/chat/{group_id}", wsHandler.Chat)
	r.Get("/ws/study-group/{group_id}", wsHandler.StudyGroup)
	r.Get("/ws/notifications", wsHandler.Notifications)
	r.Get("/ws/alumni", wsHandler.Alumni)
	r.Get("/ws/events/{event_id}", wsHandler.Events)

	// Management surface
	r.Route("/api/v1/realtime", func(r chi.Router) {
		r.Get("/connections-stats", realtimeHandler.ConnectionStats)
		r.Get("/online-users", realtimeHandler.OnlineUsers)
		r.Get("/group-members/{group_id}", realtimeHandler.GroupMembers)
		r.Get("/chat-history/{group_id}", realtimeHandler.ChatHistory)
		r.Post("/chat-history/{group_id}/clear", realtimeHandler.ClearChatHistory)
		r.Post("/broadcast", realtimeHandler.Broadcast)
		r.Post("/notify/{user_id}", realtimeHandler.Notify)
		r.Get("/active-events", realtimeHandler.ActiveEvents)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Printf("hub shutdown: %v", err)
	}
}

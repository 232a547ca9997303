package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/api"
	"github.com/connect-four/agent/internal/config"
	"github.com/connect-four/agent/internal/game"
	"github.com/connect-four/agent/internal/kafka"
	"github.com/connect-four/agent/internal/logging"
	"github.com/connect-four/agent/internal/matchmaker"
	"github.com/connect-four/agent/internal/storage"
	"github.com/connect-four/agent/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Warn().Err(err).Msg("could not read .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.StoreBackend, cfg.StoreTarget())
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.StoreBackend).Msg("store not available, keeping games in memory only")
		if store, err = storage.NewMemoryStore(); err != nil {
			log.Warn().Err(err).Msg("memory store not available, games won't be persisted")
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	var consumer *kafka.Consumer
	if producer.IsEnabled() {
		consumer, err = kafka.NewConsumer(cfg.KafkaBrokers)
		if err != nil {
			log.Warn().Err(err).Msg("kafka consumer not available")
		} else {
			consumer.Start()
			defer consumer.Stop()
		}
	}

	settings := cfg.AgentSettings()
	if _, err := agent.New(cfg.BotAgent, settings); err != nil {
		log.Fatal().Err(err).Msg("invalid BOT_AGENT")
	}
	mm := matchmaker.NewMatchmaker(
		matchmaker.WithTimeout(cfg.MatchTimeout),
		matchmaker.WithReconnectWindow(cfg.ReconnectWindow),
		matchmaker.WithBotFactory(func() agent.Agent {
			a, _ := agent.New(cfg.BotAgent, settings)
			return a
		}),
	)
	hub := websocket.NewHub(mm)

	mm.SetOnGameStart(producer.EmitGameStart)
	hub.SetOnMove(func(g *game.Game, player string, column, row int) {
		producer.EmitMove(g, player, column, row, g.GetState().MoveCount)
	})
	hub.SetOnDecision(func(g *game.Game, d agent.Decision) {
		producer.EmitDecision(g.ID, g.Bot.Name(), d)
	})
	hub.SetOnGameEnd(func(g *game.Game) {
		producer.EmitGameEnd(g)
		if store == nil {
			return
		}
		if err := store.SaveGame(context.Background(), storage.NewCompletedGame(g)); err != nil {
			log.Error().Err(err).Str("game", g.ID).Msg("error saving game")
		}
	})

	go hub.Run()
	handler := websocket.NewHandler(hub, mm)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		api.NewHandlers(store, mm, producer, consumer, settings).RegisterRoutes(r)
	})
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(hub, handler, w, r)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreBackend).
			Str("bot", cfg.BotAgent).
			Bool("kafka", producer.IsEnabled()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	log.Info().Msg("server exited")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"showme/internal/common"
	"showme/internal/dbmysql"
	"showme/internal/di"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using system environment variables")
	}

	app, err := di.InitializeApplication()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	setupLogging(app.Config.Logging.Level, app.Config.Logging.Format)

	if err := dbmysql.Migrate(app.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Msg("database migration completed")

	router := mux.NewRouter()

	// REST surface, bearer-authenticated.
	api := router.NewRoute().Subrouter()
	api.Use(common.AuthMiddleware)
	api.HandleFunc("/chat/send", app.Chat.Send).Methods(http.MethodPost)
	api.HandleFunc("/chat/conversation/{username}", app.Chat.History).Methods(http.MethodGet)
	api.HandleFunc("/notifications", app.Notif.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/mark-all-read", app.Notif.MarkAllRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id:[0-9]+}/read", app.Notif.MarkRead).Methods(http.MethodPost)

	// Conversation sockets authenticate via the token query parameter; the
	// notification socket is addressed by user id alone.
	router.Handle("/ws/chat/{username}", common.AuthMiddleware(http.HandlerFunc(app.Chat.ServeWS)))
	router.HandleFunc("/ws/notifications/{userID:[0-9]+}", app.Notif.ServeWS)

	server := &http.Server{
		Addr:    app.Config.Addr(),
		Handler: router,
		// Only the header read is bounded: read/write deadlines would kill
		// the long-lived websocket connections.
		ReadHeaderTimeout: time.Duration(app.Config.Server.ReadTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("realtime service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

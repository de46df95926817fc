package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cities/apps/go-server/assets"
	"github.com/robalobadob/cities/apps/go-server/internal/cities"
	"github.com/robalobadob/cities/apps/go-server/internal/database"
	"github.com/robalobadob/cities/apps/go-server/internal/game"
	"github.com/robalobadob/cities/apps/go-server/internal/httpserver"
	"github.com/robalobadob/cities/apps/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	catalog, err := cities.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load city catalog")
	}
	log.Info().Int("cities", catalog.Len()).Msg("catalog loaded")

	db, err := database.OpenMigrated(cfg.DBPath, assets.Migrations())
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	var sessions game.SessionStore
	switch cfg.SessionStore {
	case "memory":
		sessions = store.NewMemoryStore()
	case "sqlite":
		sessions = store.NewSQLiteStore(db)
	default:
		log.Fatal().Str("store", cfg.SessionStore).Msg("SESSION_STORE must be sqlite or memory")
	}

	engine := game.NewEngine(catalog, sessions)
	srv := httpserver.New(httpserver.Config{
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         time.Duration(cfg.JWTExpiresDays) * 24 * time.Hour,
		CookieName:     cfg.CookieName,
		ClientOrigin:   cfg.ClientOrigin,
		Production:     cfg.Production,
		MoveRPS:        cfg.MoveRPS,
		MoveBurst:      cfg.MoveBurst,
		RequestTimeout: cfg.RequestTimeout,
	}, engine, db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", cfg.Port).Str("sessions", cfg.SessionStore).Msg("starting go-server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

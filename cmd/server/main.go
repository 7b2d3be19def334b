package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyhub/materials-portal/internal/api"
	"github.com/studyhub/materials-portal/internal/core/ports"
	"github.com/studyhub/materials-portal/internal/core/service"
	mongodb "github.com/studyhub/materials-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/studyhub/materials-portal/internal/infrastructure/db/redis"
	"github.com/studyhub/materials-portal/internal/infrastructure/db/sqlite"
	"github.com/studyhub/materials-portal/internal/infrastructure/http/handlers"
	badgerstore "github.com/studyhub/materials-portal/internal/infrastructure/metadata/badger"
	"github.com/studyhub/materials-portal/internal/infrastructure/metadata/jsonfile"
	"github.com/studyhub/materials-portal/internal/infrastructure/queue"
	"github.com/studyhub/materials-portal/internal/infrastructure/storage/disk"
	"github.com/studyhub/materials-portal/internal/pkg/config"
	"github.com/studyhub/materials-portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title Study Materials Portal API
// @version 1.0
// @description Register, sign in, upload study materials by branch and semester, and list or download them.
// @host localhost:5000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
		Env:    cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	checks := map[string]handlers.Checker{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("close failed")
			}
		}
	}()

	// --- Credential store ---
	var users ports.AuthRepository
	switch cfg.Users.Driver {
	case config.UsersMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		closers = append(closers, func() error { return mongodb.Disconnect(client) })

		repo := mongodb.NewAuthRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		users = repo
	default:
		db, err := sqlite.Open(cfg.Users.SQLitePath)
		if err != nil {
			return err
		}
		closers = append(closers, func() error { return sqlite.Close(db) })
		users = sqlite.NewAuthRepository(db)
	}
	checks["users"] = users.Ping
	log.Info().Str("driver", cfg.Users.Driver).Msg("credential store ready")

	// --- Metadata store, behind the single writer ---
	var metadata ports.MaterialRepository
	switch cfg.Metadata.Driver {
	case config.MetadataBadger:
		repo, err := badgerstore.Open(badgerstore.Config{Dir: cfg.Metadata.BadgerDir})
		if err != nil {
			return err
		}
		closers = append(closers, repo.Close)
		metadata = repo
	default:
		repo, err := jsonfile.New(cfg.Metadata.File)
		if err != nil {
			return err
		}
		metadata = repo
	}

	writerCtx, stopWriter := context.WithCancel(context.Background())
	writer := queue.NewSerialWriter(metadata, logger.Component("metadata-writer"))
	writer.Start(writerCtx)
	closers = append(closers, func() error {
		stopWriter()
		<-writer.Done()
		return nil
	})
	checks["metadata"] = writer.Ping
	log.Info().Str("driver", cfg.Metadata.Driver).Msg("metadata store ready")

	// --- File store ---
	files, err := disk.New(cfg.Uploads.Dir, logger.Component("disk"))
	if err != nil {
		return err
	}
	if n, err := files.PurgeStaging(cfg.Uploads.StagingMaxAge); err != nil {
		log.Warn().Err(err).Msg("staging purge failed")
	} else if n > 0 {
		log.Info().Int("removed", n).Msg("purged abandoned staged uploads")
	}

	// --- Optional listing cache ---
	var cache ports.MaterialCache
	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, listing cache disabled")
		} else {
			closers = append(closers, client.Close)
			mc := redisdb.NewMaterialCache(client, cfg.Redis.CacheTTL, logger.Component("cache"))
			checks["redis"] = mc.Ping
			cache = mc
		}
	}

	// --- Services ---
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(users, tokens, logger.Component("auth"))
	materialService := service.NewMaterialService(writer, files, cache, cfg.Uploads.MaxBytes, logger.Component("upload"))

	e := api.NewRouter(api.Deps{
		AuthService:     authService,
		MaterialService: materialService,
		UploadRoles:     cfg.Uploads.Roles,
		MaxUploadBytes:  materialService.MaxUploadSize(),
		HealthChecks:    checks,
		Logger:          logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("uploads", files.Root()).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return nil
}

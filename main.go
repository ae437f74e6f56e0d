package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shoppingapp/usersapi/accounts"
	"github.com/shoppingapp/usersapi/config"
	"github.com/shoppingapp/usersapi/dbhelper"
	"github.com/shoppingapp/usersapi/logging"
	"github.com/shoppingapp/usersapi/middlewares"
	"github.com/shoppingapp/usersapi/notify"
	"github.com/shoppingapp/usersapi/revocation"
	"github.com/shoppingapp/usersapi/routes"
	"github.com/shoppingapp/usersapi/security"
	"github.com/shoppingapp/usersapi/utils"
)

func main() {
	// Setting up environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	// Setting up logs
	logger, logFile, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setting up database
	db, err := dbhelper.OpenDB(cfg.DB, logger)
	if err != nil {
		return err
	}
	if err := dbhelper.InitDB(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	jwtManager, err := utils.NewJWTManager(utils.JWTOptions{
		AccessSecret:     cfg.JWT.AccessSecret,
		AccessSecretOld:  cfg.JWT.AccessSecretOld,
		RefreshSecret:    cfg.JWT.RefreshSecret,
		RefreshSecretOld: cfg.JWT.RefreshSecretOld,
		AccessTTL:        cfg.JWT.AccessTTL,
		RefreshTTL:       cfg.JWT.RefreshTTL,
		Issuer:           cfg.JWT.Issuer,
	})
	if err != nil {
		return err
	}

	// Setting up token revocation
	var revoker interface {
		accounts.Revoker
		revocation.Checker
	} = revocation.Noop{}
	var redisRevoker *revocation.RedisRevoker
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		redisRevoker = revocation.NewRedisRevoker(client, jwtManager.AccessTTL())
		revoker = redisRevoker
	} else {
		logger.Warn("REDIS_ADDR not set, access tokens stay valid until they expire")
	}

	var notifier accounts.Notifier = notify.NewLogNotifier(logger)
	if cfg.Mail.ResendAPIKey != "" {
		notifier, err = notify.NewResendNotifier(notify.ResendConfig{
			APIKey:   cfg.Mail.ResendAPIKey,
			From:     cfg.Mail.From,
			ResetURL: cfg.Mail.ResetURL,
		}, logger)
		if err != nil {
			return err
		}
	}

	policy := security.NewPolicy(security.Config{
		MaxFailedLogins:   cfg.Security.MaxFailedLogins,
		LockoutDuration:   cfg.Security.LockoutDuration,
		ResetTokenTTL:     cfg.Security.ResetTokenTTL,
		HistorySize:       cfg.Security.PasswordHistorySize,
		MinPasswordLength: cfg.Security.PasswordMinLength,
	}, utils.NewBcryptHasher(cfg.Security.BcryptCost))

	service := accounts.NewService(accounts.Deps{
		Store:    dbhelper.NewStore(db),
		Policy:   policy,
		Tokens:   jwtManager,
		Notifier: notifier,
		Revoker:  revoker,
		Logger:   logger,
	})

	health := func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if redisRevoker != nil {
			if err := redisRevoker.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}

	// Opening the webserver
	r := routes.NewRouter(routes.Options{
		Service:   service,
		Auth:      middlewares.NewAuthenticator(jwtManager, revoker, logger),
		RateLimit: middlewares.RateLimit(cfg.RateLimit),
		Logger:    logger,
		Health:    health,
	})
	handler := middlewares.RequestLogger(logger)(
		middlewares.Recover(logger)(
			middlewares.CORS(cfg.AllowedOrigins)(r),
		),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

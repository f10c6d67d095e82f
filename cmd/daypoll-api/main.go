package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/config"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/database"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/logging"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/metrics"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/rooms"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/server"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/visitors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "daypoll-api",
		Short: "Daypoll scheduling poll backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file")
	flags.String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	flags.String("database-driver", defaults.GetString("database.driver"), "Database driver (sqlite, postgres)")
	flags.String("database-path", defaults.GetString("database.path"), "SQLite database path")
	flags.String("database-dsn", defaults.GetString("database.dsn"), "PostgreSQL connection string")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.String("signing-secret", "", "Visitor token signing secret (overrides env)")
	flags.Int("token-ttl-hours", defaults.GetInt("auth.token_ttl_hours"), "Visitor token TTL in hours")
	flags.String("share-base-url", defaults.GetString("share.base_url"), "Base URL used to build room share links")
	flags.String("cors-origins", defaults.GetString("cors.allowed_origins"), "Comma separated list of allowed CORS origins")
	flags.Float64("rate-rps", defaults.GetFloat64("rate.requests_per_second"), "Write requests per second allowed per client")
	flags.Int("rate-burst", defaults.GetInt("rate.burst"), "Write request burst allowed per client")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "database.dsn", "database-dsn")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "auth.token_ttl_hours", "token-ttl-hours")
	bindFlag(cmd, "share.base_url", "share-base-url")
	bindFlag(cmd, "cors.allowed_origins", "cors-origins")
	bindFlag(cmd, "rate.requests_per_second", "rate-rps")
	bindFlag(cmd, "rate.burst", "rate-burst")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	// A .env file is optional; real environment variables still win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.Open(ctx, database.Config{
		Driver: appConfig.DatabaseDriver,
		Path:   appConfig.DatabasePath,
		DSN:    appConfig.DatabaseDSN,
	}, logger)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	tokenIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        auth.DefaultIssuer,
		Audience:      auth.DefaultAudience,
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	visitorService, err := visitors.NewService(visitors.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: rooms.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	store, err := rooms.NewGormStore(db, time.Now)
	if err != nil {
		return err
	}

	appMetrics := metrics.New()

	roomsService, err := rooms.NewService(rooms.ServiceConfig{
		Store:              store,
		Clock:              time.Now,
		RoomIDs:            rooms.NewRoomIDProvider(),
		VoteIDs:            rooms.NewUUIDProvider(),
		Logger:             logger,
		ShareBaseURL:       appConfig.ShareBaseURL,
		ObserveAggregation: appMetrics.ObserveAggregation,
	})
	if err != nil {
		return err
	}

	rateLimiter := server.NewRateLimiter(appConfig.RequestsPerSecond, appConfig.Burst)
	defer rateLimiter.Stop()

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenIssuer:    tokenIssuer,
		Visitors:       visitorService,
		RoomsService:   roomsService,
		Metrics:        appMetrics,
		RateLimiter:    rateLimiter,
		AllowedOrigins: appConfig.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("database_driver", appConfig.DatabaseDriver),
		)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

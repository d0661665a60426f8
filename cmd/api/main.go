package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"homeservices/internal/api"
	"homeservices/internal/auth"
	"homeservices/internal/bot"
	"homeservices/internal/config"
	"homeservices/internal/database"
	"homeservices/internal/domain"
	"homeservices/internal/effects"
	"homeservices/internal/events"
	"homeservices/internal/google"
	"homeservices/internal/logging"
	"homeservices/internal/metrics"
	"homeservices/internal/notify"
	"homeservices/internal/repository"
	"homeservices/internal/service"
	"homeservices/internal/storage"
	"homeservices/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	tokenIssuer      = "homeservices"
	shutdownTimeout  = 15 * time.Second
	healthWatchEvery = 15 * time.Second
	syncRetention    = 7 * 24 * time.Hour
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	logger := logging.Component(baseLogger, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, baseLogger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	cache := initCache(redisClient, baseLogger)

	tokens := auth.NewTokenManager(cfg.API.Auth.JWTSecret, cfg.API.Auth.TokenTTL, tokenIssuer)
	eventBus := events.NewEventBus()
	eventBus.OnError(func(event *events.Event, err error) {
		logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
	})

	tgBot := initTelegram(cfg, logger)
	var tgSender domain.TelegramSender
	if tgBot != nil {
		tgSender = tgBot
	}
	dispatcher := notify.New(cfg.Notifications, tgSender, baseLogger)
	runner := effects.NewRunner(cfg.Notifications.IsAsync(), baseLogger)

	var wg sync.WaitGroup
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	var syncer domain.SyncWorker
	if sheetsWorker := initSheetsWorker(ctx, cfg, db, redisClient, baseLogger); sheetsWorker != nil {
		syncer = sheetsWorker
		wg.Add(1)
		go func() {
			defer wg.Done()
			sheetsWorker.Start(bgCtx)
		}()
	}

	store, mediaRoot, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	users := service.NewUserService(db, tokens, cache, cfg.API.Auth, baseLogger)
	bookings := service.NewBookingService(db, db, dispatcher, eventBus, syncer, runner, cfg.Notifications.Timeout, baseLogger)
	catalog := service.NewCatalogService(db, db, cache, eventBus, cfg.Cache.CatalogTTL, baseLogger)
	reviews := service.NewReviewService(db, db, db, eventBus, baseLogger)
	admin := service.NewAdminService(db, db, db, cache, cfg.Cache.StatsTTL, cfg.App, baseLogger)
	support := service.NewSupportService(db, baseLogger)
	gallery := service.NewGalleryService(db, store, baseLogger)

	subscribeInvalidation(eventBus, admin, catalog)

	if created, err := users.EnsureAdmin(ctx, cfg.Admin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	} else if created {
		logger.Warn().Str("email", cfg.Admin.Email).Msg("default admin account created; change its password")
	}

	if tgBot != nil && cfg.Notifications.Telegram.Console {
		console, err := initConsole(ctx, cfg, db, tgBot, bookings, admin, cache, baseLogger)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram console disabled")
		} else {
			console.StartDigest(bgCtx)
			wg.Add(1)
			go func() {
				defer wg.Done()
				console.Start(bgCtx)
			}()
			defer console.Stop()
		}
	}

	backups := database.NewBackupService(cfg.Database.Path, cfg.Backup, logging.Component(baseLogger, "backup"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		backups.Start(bgCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		purgeSyncQueue(bgCtx, db, logger)
	}()

	startMetrics(ctx, cfg, logger)

	httpServer := api.NewHTTPServer(cfg.API, api.Services{
		Users:    users,
		Bookings: bookings,
		Catalog:  catalog,
		Reviews:  reviews,
		Admin:    admin,
		Support:  support,
		Gallery:  gallery,
	}, tokens, db, api.HTTPOptions{App: cfg.App, MediaRoot: mediaRoot}, baseLogger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, db.Ping, baseLogger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
		go grpcServer.Watch(bgCtx, healthWatchEvery)
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()
	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := runner.Drain(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("post-commit effects still running at shutdown")
	}

	cancelBackground()
	wg.Wait()
	logger.Info().Msg("API server stopped")
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}
	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		// the failover cache keeps probing, so a late redis still gets used
		logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unreachable at startup")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

func initCache(client *redis.Client, logger *zerolog.Logger) domain.Cache {
	memory := repository.NewMemoryCache()
	if client == nil {
		return memory
	}
	return repository.NewFailoverCache(repository.NewRedisCache(client), memory, logger)
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) *tgbotapi.BotAPI {
	tg := cfg.Notifications.Telegram
	if tg.BotToken == "" {
		return nil
	}
	botAPI, err := tgbotapi.NewBotAPI(tg.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram")
		return nil
	}
	botAPI.Debug = tg.Debug
	logger.Info().Str("username", botAPI.Self.UserName).Msg("telegram connected")
	return botAPI
}

func initSheetsWorker(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client,
	logger *zerolog.Logger) *worker.SheetsWorker {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}
	sheets, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID, cfg.Google.SheetName)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheets.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable; tasks will queue until it recovers")
	}
	if failed, err := db.GetFailedSyncTasks(ctx); err == nil && len(failed) > 0 {
		logger.Warn().Int("failed_tasks", len(failed)).Msg("sheets sync has failed tasks awaiting attention")
	}
	return worker.NewSheetsWorker(db, sheets, redisClient, worker.RetryPolicy{}, logger)
}

// initStorage returns the gallery store and, for local storage, the directory served under /media/.
func initStorage(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.ObjectStore, string, error) {
	if cfg.Storage.Enabled() {
		store, err := storage.NewMinioStore(cfg.Storage)
		if err != nil {
			return nil, "", fmt.Errorf("init object storage: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, "", fmt.Errorf("ensure bucket %s: %w", cfg.Storage.Bucket, err)
		}
		logger.Info().Str("endpoint", cfg.Storage.Endpoint).Str("bucket", cfg.Storage.Bucket).Msg("object storage ready")
		return store, "", nil
	}

	if err := os.MkdirAll(cfg.Storage.LocalPath, 0o755); err != nil {
		return nil, "", fmt.Errorf("create media directory: %w", err)
	}
	logger.Info().Str("path", cfg.Storage.LocalPath).Msg("storing gallery uploads on disk")
	return storage.NewDiskStore(cfg.Storage.LocalPath, "/media"), cfg.Storage.LocalPath, nil
}

// subscribeInvalidation drops cached dashboard and popularity figures whenever bookings
// or the catalog change. Handlers run synchronously on the publisher's goroutine.
func subscribeInvalidation(bus *events.EventBus, admin *service.AdminService, catalog *service.CatalogService) {
	bus.SubscribeAll(events.BookingEvents, func(*events.Event) error {
		admin.InvalidateStats(context.Background())
		return nil
	})
	// catalog_changed also fires once a new booking's counter increments have landed
	bus.Subscribe(events.EventCatalogChanged, func(*events.Event) error {
		admin.InvalidateStats(context.Background())
		catalog.InvalidateCache(context.Background())
		return nil
	})
}

func initConsole(ctx context.Context, cfg *config.Config, db *database.DB, client bot.Client,
	bookings *service.BookingService, admin *service.AdminService, cache domain.Cache, logger *zerolog.Logger) (*bot.Bot, error) {
	account, err := db.GetUserByEmail(ctx, cfg.Admin.Email)
	if err != nil {
		return nil, fmt.Errorf("load console account: %w", err)
	}
	actor := &auth.Principal{UserID: account.ID, Email: account.Email, Role: account.Role}
	return bot.New(client, cfg.Notifications.Telegram, bookings, admin, cache, actor, logger), nil
}

func purgeSyncQueue(ctx context.Context, db *database.DB, logger *zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.PurgeCompletedSyncTasks(ctx, time.Now().Add(-syncRetention))
			if err != nil {
				logger.Warn().Err(err).Msg("sync queue purge failed")
				continue
			}
			logger.Info().Int64("removed", n).Msg("sync queue purged")
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Int("port", port).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

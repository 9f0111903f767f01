package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hms-listview/common/database"
	"hms-listview/common/logger"
	commonredis "hms-listview/common/redis"
	"hms-listview/internal/config"
	"hms-listview/internal/connectivity"
	"hms-listview/internal/entities"
	httpapi "hms-listview/internal/http"
	"hms-listview/internal/metrics"
	"hms-listview/internal/service"
	"hms-listview/internal/store"
	"hms-listview/internal/usecase"

	"go.uber.org/zap"
)

const (
	snapshotTTL   = 24 * time.Hour
	sweepInterval = 5 * time.Minute
	replayTimeout = 2 * time.Minute
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "hms-listview", cfg.Log.File)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := entities.NewRegistry()
	if err != nil {
		log.Fatal("Invalid entity catalogue", zap.Error(err))
	}

	// Redis：快照缓存、离线队列，以及默认的偏好存储
	redisClient, err := commonredis.Connect(ctx, &cfg.Redis)
	redisUp := err == nil
	if redisUp {
		defer redisClient.Close()
	} else {
		log.Warn("Redis unreachable, falling back to in-memory stores", zap.Error(err))
	}

	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			defer database.Close(db)
			log.Info("DB enabled for hms-listview")
		} else {
			log.Warn("DB enabled but connection failed", zap.Error(err))
		}
	}

	var cacheKV store.KV = store.NewMemoryKV()
	if redisUp {
		cacheKV = store.NewRedisKV(redisClient)
	}

	prefKV := cacheKV
	switch cfg.ListView.PreferencesBackend {
	case "postgres":
		if db == nil {
			log.Fatal("Preferences backend postgres requires a database connection")
		}
		pg := store.NewPostgresKV(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to ensure preferences schema", zap.Error(err))
		}
		prefKV = pg
	case "memory":
		prefKV = store.NewMemoryKV()
	}
	log.Info("Stores ready",
		zap.String("preferences_backend", cfg.ListView.PreferencesBackend),
		zap.Bool("redis", redisUp),
	)

	var queue usecase.Queue = usecase.NewMemoryQueue()
	if redisUp {
		queue = usecase.NewStreamQueue(redisClient, cfg.ListView.OfflineQueueStream, "", log)
	}

	client := usecase.NewRemoteClient(cfg.AdminAPI.BaseURL, cfg.AdminAPI.Timeout)

	var monitor connectivity.Monitor
	if cfg.MQTT.Enabled {
		mm := connectivity.NewMQTTMonitor(&cfg.MQTT, log)
		defer mm.Close()
		monitor = mm
	} else {
		probe := connectivity.NewProbeMonitor(client, "/health", cfg.ListView.ProbeInterval, log)
		go probe.Run(ctx)
		monitor = probe
	}

	m := metrics.New()
	sessions := httpapi.NewSessionManager(httpapi.SessionDeps{
		Registry:    registry,
		Client:      client,
		Queue:       queue,
		Preferences: store.NewPreferenceStore(prefKV, log),
		Snapshots:   store.NewSnapshotCache(cacheKV, snapshotTTL, log),
		Keys:        store.Keys{Prefix: cfg.ListView.KeyPrefix},
		Monitor:     monitor,
		Metrics:     m,
		Logger:      log,
	})
	defer sessions.Close()
	go sessions.RunSweeper(ctx, sweepInterval)

	replay := func() {
		rctx, rcancel := context.WithTimeout(ctx, replayTimeout)
		defer rcancel()
		if _, err := sessions.ReplayQueued(rctx); err != nil {
			log.Warn("Offline queue replay incomplete", zap.Error(err))
		}
	}
	unsubscribe := monitor.Subscribe(func(online bool) {
		if online {
			go replay()
		}
	})
	defer unsubscribe()
	if monitor.Online() {
		go replay()
	}

	router := httpapi.NewRouter(cfg.HTTP.CORSAllowedOrigins, log)
	router.RegisterHealthRoute()
	router.RegisterScreenRoutes(httpapi.NewScreenHandler(registry, sessions, log))
	router.HandleHandler("/metrics", m.Handler())

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"authcore/internal/audit"
	"authcore/internal/blacklist"
	"authcore/internal/config"
	"authcore/internal/es"
	"authcore/internal/events"
	"authcore/internal/handlers"
	"authcore/internal/logging"
	mwauth "authcore/internal/middleware/auth"
	"authcore/internal/service"
	httpserver "authcore/internal/transport/http"
)

const purgeInterval = time.Hour

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var rdb *redis.Client
	if configuration.BLACKLIST_MODE == "redis" {
		rdb, err = blacklist.NewRedisClient(configuration.REDIS_URL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
	}

	bl, err := blacklist.New(configuration.BLACKLIST_MODE, db, rdb)
	if err != nil {
		log.Fatal(err)
	}

	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(es.Config{
			URL:      configuration.ES_URL,
			Username: configuration.ES_USER,
			Password: configuration.ES_PASSWORD,
		})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	bus := events.NewBus()
	recorder := &audit.Recorder{DB: db, ES: esClient, Index: "auth_logs"}
	bus.Subscribe(recorder.Handle)

	publisher := events.Fanout{bus}
	var kafkaPub *events.KafkaPublisher
	if configuration.KAFKA_ADDRESS != "" {
		kafkaPub = events.NewKafkaPublisher([]string{configuration.KAFKA_ADDRESS}, "auth_events")
		publisher = append(publisher, kafkaPub)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	authSvc := &service.AuthService{
		DB:         db,
		JWTSecret:  jwtSecret,
		AccessTTL:  configuration.ACCESS_TTL,
		RefreshTTL: configuration.REFRESH_TTL,
		Blacklist:  bl,
	}
	rbacSvc := &service.RBACService{DB: db, Events: publisher}
	userSvc := &service.UserService{DB: db, Events: publisher}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		Guard:       &mwauth.Guard{JWTSecret: jwtSecret, Blacklist: bl},
		AuthHandler: &handlers.AuthHandler{Auth: authSvc, Events: publisher},
		RBACHandler: &handlers.RBACHandler{RBAC: rbacSvc},
		UserHandler: &handlers.UserHandler{Users: userSvc},
	}
	if esClient != nil {
		deps.AuditSearch = &audit.SearchHandler{ES: esClient, Index: "auth_logs"}
	}

	httpserver.Register(e, &deps)

	// The db blacklist keeps rows past expiry until purged.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				if err := bl.PurgeExpired(purgeCtx); err != nil {
					logger.Error("blacklist_purge_failed", "error", err)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stopPurge()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}

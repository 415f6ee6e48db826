package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"crtracker/internal/events/publisher"
	"crtracker/internal/platform/cache"
	"crtracker/internal/platform/config"
	"crtracker/internal/platform/httpserver"
	"crtracker/internal/platform/kafka"
	"crtracker/internal/platform/logger"
	platformredis "crtracker/internal/platform/redis"
	reportservice "crtracker/internal/report/service"
	reportstore "crtracker/internal/report/store"
	reportcached "crtracker/internal/report/store/cached"
	reportmemory "crtracker/internal/report/store/memory"
	reportpg "crtracker/internal/report/store/postgres"
	"crtracker/internal/stats"
	"crtracker/internal/user/hierarchy"
	userservice "crtracker/internal/user/service"
	userstore "crtracker/internal/user/store"
	usercached "crtracker/internal/user/store/cached"
	usermemory "crtracker/internal/user/store/memory"
	userpg "crtracker/internal/user/store/postgres"
)

// main wires the backends, starts the event worker, and keeps the server
// lifecycle small. Business logic lives in the internal services.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	var reports reportstore.ReportStore
	var comments reportstore.CommentStore
	var users userstore.UserStore

	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		reports = reportpg.New(db)
		comments = reportpg.NewCommentStore(db)
		users = userpg.New(db)
		log.Info("using postgres stores")
	} else {
		reports = reportmemory.New()
		comments = reportmemory.NewCommentStore()
		users = usermemory.New()
		log.Warn("no postgres configured, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		c := cache.NewRedis(redisClient.Client)
		reports = reportcached.New(reports, c, log)
		users = usercached.New(users, c, log)
		log.Info("redis cache enabled")
	}

	var sink publisher.Sink
	kafkaClient, err := kafka.New(cfg.Kafka)
	if err != nil {
		log.Error("connect kafka", "error", err)
		os.Exit(1)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		sink = publisher.NewKafkaSink(kafkaClient)
		log.Info("kafka sink enabled", "brokers", cfg.Kafka.Brokers)
	} else {
		sink = publisher.NewLogSink(log)
		log.Warn("no kafka configured, events go to the log")
	}
	pub := publisher.New(sink, cfg.EventQueueSize, log)

	clock := time.Now
	rules := reportservice.NewRules(reports, clock)
	resolver := hierarchy.New(users)
	app := &application{
		reports: reportservice.New(reports, comments, users, rules, resolver, pub, log, clock),
		users:   userservice.New(users, pub, log, clock),
		stats:   stats.New(reports, clock),
		redis:   redisClient,
	}

	srv := httpserver.New(cfg.Addr, newRouter(app, log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := pub.Run(ctx); err != nil && err != context.Canceled {
			log.Error("event worker stopped", "error", err)
		}
	}()

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	cancel()
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-goals/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-goals/internal/adapters/db"
	"github.com/comitanigiacomo/kanso-goals/internal/adapters/events"
	adapterHTTP "github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-goals/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-goals/internal/config"
	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/comitanigiacomo/kanso-goals/internal/core/workers"
	"github.com/gin-gonic/gin"
)

type milestonePublisher interface {
	workers.Publisher
	Close() error
}

// application owns every long-lived resource of the API process.
type application struct {
	router    *gin.Engine
	db        *sqlx.DB
	redis     *redis.Client
	publisher milestonePublisher
	scheduler *workers.CycleScheduler
	stop      context.CancelFunc
}

func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	startTime := time.Now()

	conn, err := db.Init(ctx, cfg.DBDriver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(conn.DB, cfg.DBDriver); err != nil {
		conn.Close()
		return nil, err
	}

	app := &application{db: conn}

	var goalRepo domain.GoalRepository = repository.NewSQLGoalRepository(conn)
	logRepo := repository.NewSQLLogRepository(conn)
	userRepo := repository.NewSQLUserRepository(conn)
	cycleRepo := repository.NewSQLCycleRepository(conn)

	if cfg.RedisEnabled() {
		rdb, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, running without cache and rate limiting", "error", err)
		} else {
			app.redis = rdb
			goalRepo = repository.NewCachedGoalRepository(goalRepo, rdb)
		}
	}

	if cfg.KafkaEnabled() {
		app.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("milestone events go to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		app.publisher = events.NewLogPublisher(logger)
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	app.stop = cancel

	milestoneWorker := workers.NewMilestoneWorker(goalRepo, logRepo, app.publisher)
	milestoneWorker.Start(workerCtx)

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, userRepo)
	authService := services.NewAuthService(userRepo, tokenService)
	goalService := services.NewGoalService(goalRepo, logRepo)
	logService := services.NewLogService(logRepo, goalRepo, milestoneWorker)
	statsService := services.NewStatsService(goalRepo, logRepo)
	cycleService := services.NewCycleService(cycleRepo, goalRepo, logRepo)

	app.scheduler = workers.NewCycleScheduler(cycleService, cfg.CycleCloseSchedule)
	if err := app.scheduler.Start(); err != nil {
		app.Close()
		return nil, fmt.Errorf("cycle scheduler: %w", err)
	}

	app.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:  adapterHTTP.NewAuthHandler(authService),
		GoalHandler:  adapterHTTP.NewGoalHandler(goalService),
		LogHandler:   adapterHTTP.NewLogHandler(logService),
		StatsHandler: adapterHTTP.NewStatsHandler(statsService),
		CycleHandler: adapterHTTP.NewCycleHandler(cycleService),
		ShareHandler: adapterHTTP.NewShareHandler(goalService, logService, statsService),
		TokenService: tokenService,
		DB:           conn,
		Redis:        app.redis,
		Logger:       logger,
		Metrics:      middleware.NewMetrics(),
		CORSOrigins:  cfg.CORSOrigins,
		RateLimit:    cfg.RateLimitRequests,
		RateWindow:   cfg.RateLimitWindow,
		StartTime:    startTime,
	})

	return app, nil
}

// Close stops the background jobs before releasing the connections they use.
func (a *application) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.stop != nil {
		a.stop()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Error("closing milestone publisher", "error", err)
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if err := db.Close(a.db); err != nil {
		slog.Error("closing database", "error", err)
	}
}

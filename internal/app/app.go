// Package app assembles one of the three services from its configuration:
// store, token codec, guard, handlers, event wiring and the HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/project-tracker/internal/aggregation"
	"github.com/iliyamo/project-tracker/internal/client"
	"github.com/iliyamo/project-tracker/internal/config"
	"github.com/iliyamo/project-tracker/internal/database"
	"github.com/iliyamo/project-tracker/internal/handler"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/metrics"
	"github.com/iliyamo/project-tracker/internal/middleware"
	"github.com/iliyamo/project-tracker/internal/password"
	"github.com/iliyamo/project-tracker/internal/queue"
	"github.com/iliyamo/project-tracker/internal/repository"
	"github.com/iliyamo/project-tracker/internal/router"
	"github.com/iliyamo/project-tracker/internal/service"
	"github.com/iliyamo/project-tracker/internal/token"
)

const shutdownTimeout = 10 * time.Second

// App is a wired service ready to serve.
type App struct {
	cfg       config.Config
	log       logger.Logger
	echo      *echo.Echo
	db        *sql.DB
	rdb       *redis.Client
	consumers []*queue.Consumer
}

// New wires the service named in cfg.Service.
func New(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	codec, err := token.NewCodec(cfg.JWTSecret, cfg.TokenLifetime)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}
	if cfg.DB.Driver == "mysql" {
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		if cfg.DB.Migrate {
			if err := database.Migrate(db, cfg.Service); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if a.db != nil {
		reg.MustRegister(collectors.NewDBStatsCollector(a.db, cfg.DB.Name))
	}
	mc := metrics.NewCollector(reg, cfg.Service)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(mc.Middleware())
	a.echo = e

	var pinger handler.Pinger
	if a.db != nil {
		pinger = a.db
	}
	router.RegisterRoutes(e, handler.Health(cfg.Service, pinger), metrics.Handler(reg))

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL, log)
	}
	guard := middleware.NewGuard(codec, log)

	switch cfg.Service {
	case config.Identity:
		a.wireIdentity(codec, guard, events)
	case config.Project:
		a.wireProject(guard, events, mc)
	case config.Task:
		a.wireTask(guard)
	}
	return a, nil
}

func (a *App) wireIdentity(codec *token.Codec, guard *middleware.Guard, events service.EventPublisher) {
	var users service.CredentialStore = repository.NewMemoryUserStore()
	if a.db != nil {
		users = repository.NewUserRepo(a.db)
	}
	svc := service.NewIdentityService(users, codec, password.NewHasher(a.cfg.BcryptCost), events, a.log)

	if a.cfg.RateLimit.Enabled {
		a.rdb = config.NewRedisClient(a.cfg.Redis)
		if a.rdb == nil {
			a.log.Warn("redis unreachable, rate limiting per process", logger.String("addr", a.cfg.Redis.Addr))
		}
	}
	limit := middleware.NewTokenBucket(a.cfg.RateLimit, a.rdb, a.log)
	router.RegisterIdentity(a.echo, handler.NewAuthHandler(svc, a.log), guard, limit)
}

func (a *App) wireProject(guard *middleware.Guard, events service.EventPublisher, mc *metrics.Collector) {
	var store service.ProjectStore = repository.NewMemoryProjectStore()
	if a.db != nil {
		store = repository.NewProjectRepo(a.db)
	}
	fetcher := aggregation.NewFetcher(nil, a.cfg.TaskServiceURL, a.cfg.StatsTimeout, a.log, mc)
	svc := service.NewProjectService(store, fetcher, events, a.log)
	router.RegisterProject(a.echo, handler.NewProjectHandler(svc, a.log), guard)

	if a.cfg.EventsEnabled {
		a.consumers = append(a.consumers, queue.NewConsumer(a.cfg.AMQPURL, queue.IdentityDeleted,
			queue.OnIdentityDeleted(func(ctx context.Context, ev queue.IdentityDeletedEvent) error {
				_, err := svc.PurgeOwner(ctx, ev.IdentityID)
				return err
			}), a.log))
	}
}

func (a *App) wireTask(guard *middleware.Guard) {
	var store service.TaskStore = repository.NewMemoryTaskStore()
	if a.db != nil {
		store = repository.NewTaskRepo(a.db)
	}
	var verifier service.ProjectVerifier
	if a.cfg.VerifyProjectOwner {
		verifier = client.NewProjectClient(nil, a.cfg.ProjectServiceURL, a.cfg.VerifyTimeout, a.log)
	} else {
		a.log.Warn("project ownership is not verified on task create")
	}
	svc := service.NewTaskService(store, verifier, a.log)
	router.RegisterTask(a.echo, handler.NewTaskHandler(svc, a.log), guard)

	if a.cfg.EventsEnabled {
		a.consumers = append(a.consumers, queue.NewConsumer(a.cfg.AMQPURL, queue.ProjectDeleted,
			queue.OnProjectDeleted(func(ctx context.Context, ev queue.ProjectDeletedEvent) error {
				_, err := svc.PurgeProject(ctx, ev.ProjectID)
				return err
			}), a.log))
	}
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, c := range a.consumers {
		wg.Add(1)
		go func(c *queue.Consumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("consumer stopped", logger.Err(err))
			}
		}(c)
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.log.Info("listening", logger.String("addr", addr), logger.String("store", a.cfg.DB.Driver))
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", logger.Err(err))
	}
	cancel()
	wg.Wait()
	a.Close()
	return runErr
}

// Close releases the store and cache connections.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/internal/repository"
	"github.com/Koyo-os/form-studio/internal/service"
	"github.com/Koyo-os/form-studio/pkg/closer"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/gateway"
	"github.com/Koyo-os/form-studio/pkg/health"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/Koyo-os/form-studio/pkg/retrier"
	"github.com/Koyo-os/form-studio/pkg/session"
	"github.com/Koyo-os/form-studio/pkg/transport/casher"
	"github.com/Koyo-os/form-studio/pkg/transport/consumer"
	"github.com/Koyo-os/form-studio/pkg/transport/listener"
	"github.com/Koyo-os/form-studio/pkg/transport/publisher"
	"github.com/Koyo-os/form-studio/pkg/transport/rest"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	connectRetries  = 10
	connectInterval = 5 // seconds
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
	eventBuffer     = 100
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Init(configPath, ".env")
	if err != nil {
		panic(err)
	}

	if err = logger.Init(cfg.Logger); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	closers := closer.NewCloserGroup()
	defer func() {
		if err := closers.Close(); err != nil {
			log.Error("error closing resources", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	checker := health.NewHealthChecker(log.Named("health"))

	var cache repository.Cacher
	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := retrier.Connect(connectRetries, connectInterval, func() (*redis.Client, error) {
			return casher.Connect(ctx, cfg.Urls.Redis)
		})
		if err != nil {
			log.Error("error connect to redis", zap.Error(err))
			return
		}

		redisCache := casher.Init(client, log.Named("casher"))
		closers.Add(redisCache)
		checker.Register("redis", redisCache)
		cache = redisCache
	default:
		memory := session.NewManager()
		g.Go(func() error {
			memory.Run(gctx, janitorInterval)
			return nil
		})
		checker.Register("sessions", memory)
		cache = memory
	}

	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Error("error open journal database",
			zap.String("driver", cfg.Database.Driver),
			zap.Error(err))
		return
	}

	journal := repository.Init(db, log.Named("journal"))
	closers.Add(journal)
	checker.Register("journal", journal)

	opts := []service.Option{service.WithJournal(journal)}

	var events chan entity.Event
	if cfg.Urls.Rabbitmq != "" {
		conns, err := retrier.MultiConnects(2, func() (*amqp.Connection, error) {
			return amqp.Dial(cfg.Urls.Rabbitmq)
		}, &retrier.Opts{Count: connectRetries, Interval: connectInterval})
		if err != nil {
			log.Error("error connect to rabbitmq", zap.Error(err))
			return
		}

		pub, err := publisher.Init(cfg, log.Named("publisher"), conns[0])
		if err != nil {
			conns[1].Close()
			log.Error("error init publisher", zap.Error(err))
			return
		}
		closers.Add(pub)
		checker.Register("publisher", pub)
		opts = append(opts, service.WithPublisher(pub))

		cons, err := consumer.Init(cfg, log.Named("consumer"), conns[1])
		if err != nil {
			log.Error("error init consumer", zap.Error(err))
			return
		}
		closers.Add(cons)
		checker.Register("consumer", cons)

		for _, key := range []string{cfg.Reqs.FormUpdatedType, cfg.Reqs.FormDeletedType} {
			if err = cons.Subscribe(cfg.Exchange.Request, key); err != nil {
				log.Error("error subscribe", zap.String("routing_key", key), zap.Error(err))
				return
			}
		}

		events = make(chan entity.Event, eventBuffer)
		g.Go(func() error {
			cons.ConsumeMessages(gctx, events)
			return nil
		})
	} else {
		log.Warn("rabbitmq url is empty, events are disabled")
	}

	svc := service.Init(
		cfg,
		log.Named("service"),
		repository.NewSessionRepository(cache, cfg.Store.SessionTTL),
		repository.NewFormCacheRepository(cache, cfg.Store.FormTTL),
		gateway.Init(cfg, log.Named("gateway")),
		opts...,
	)

	if events != nil {
		list := listener.Init(events, log.Named("listener"), cfg, svc)
		g.Go(func() error {
			list.Listen(gctx)
			return nil
		})
	}

	if cfg.Logger.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           rest.SetupRouter(cfg, log.Named("rest"), svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("starting http server", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return checker.Run(gctx, cfg.Server.HealthAddr)
	})

	if err = g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		return
	}

	log.Info("service stopped")
}

package main

import (
	"context"
	"delivery-tracking-service/internal/adapters/events"
	"delivery-tracking-service/internal/adapters/locations"
	"delivery-tracking-service/internal/adapters/repositories"
	"delivery-tracking-service/internal/adapters/routing"
	"delivery-tracking-service/internal/api"
	"delivery-tracking-service/internal/config"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/db"
	"delivery-tracking-service/internal/platform/logger"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
	"delivery-tracking-service/internal/tracking"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, Kafka, ORS) behind
// ports, starts the tracking hub, and serves HTTP until a shutdown
// signal arrives.
func main() {
	// No .env is the normal case outside local runs.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Logger.Level, cfg.Logger.Format)

	database, err := db.Open(cfg.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer database.Close()

	if err := repositories.InitSchema(database); err != nil {
		log.WithError(err).Fatal("schema initialization failed")
	}

	orderRepo := repositories.NewPostgresOrderRepository(database)
	routeRepo := repositories.NewPostgresRouteRepository(database)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}

	// Routing provider is optional; without it every duration falls
	// back to the linear estimate.
	var provider ports.DurationProvider
	if cfg.Routing.APIKey != "" {
		ors, err := routing.NewORSDurationProvider(cfg.Routing.APIKey, cfg.Routing.BaseURL, log)
		if err != nil {
			log.WithError(err).Fatal("routing provider setup failed")
		}
		provider = ors
		if rdb != nil {
			provider = routing.NewCachedDurationProvider(provider, rdb, cfg.Routing.CacheTTL, log)
		}
	}

	var store ports.LocationStore
	if rdb != nil {
		store = locations.NewRedisLocationStore(rdb, 10*time.Minute)
	}

	var publisher ports.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, events.Topics{
			Orders:    cfg.Kafka.OrdersTopic,
			Locations: cfg.Kafka.LocationsTopic,
		}, log)
		if err != nil {
			log.WithError(err).Fatal("kafka producer setup failed")
		}
		publisher = kp
		defer kp.Close()
	} else {
		publisher = events.NoopPublisher{}
	}

	kitchen := domain.Coordinates{Lat: cfg.Kitchen.Lat, Lng: cfg.Kitchen.Lng}
	limits := services.CoverageLimits{
		MaxDistanceMiles:   cfg.Coverage.MaxDistanceMiles,
		MaxDurationMinutes: cfg.Coverage.MaxDurationMinutes,
	}
	etaCfg := services.ETAConfig{
		AvgSpeedMph:         cfg.ETA.AvgSpeedMph,
		PerStopDwellMinutes: cfg.ETA.PerStopDwellMinutes,
		MinFactor:           cfg.ETA.MinFactor,
		MaxFactor:           cfg.ETA.MaxFactor,
	}

	validator := &services.CoverageValidator{
		Provider:    provider,
		AvgSpeedMph: etaCfg.AvgSpeedMph,
		Log:         log,
	}
	engine := &services.ETAEngine{
		Provider: provider,
		Config:   etaCfg,
		Log:      log,
	}

	hub := tracking.New(tracking.Config{
		HeartbeatInterval: cfg.Hub.HeartbeatInterval,
		DisconnectAfter:   cfg.Hub.DisconnectAfter,
	}, engine, store, publisher, log)

	router := api.NewRouter(api.Deps{
		Orders:    orderRepo,
		Routes:    routeRepo,
		Publisher: publisher,
		Validator: validator,
		Hub:       hub,
		Kitchen:   kitchen,
		Limits:    limits,
		ETACfg:    etaCfg,
		Heartbeat: cfg.Hub.HeartbeatInterval,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// WriteTimeout stays zero: the SSE tracking stream holds
		// connections open for the length of a delivery.
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("server exited")
	}
	log.Info("server stopped")
}

package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/airport-service/internal/config"
	"github.com/iliyamo/airport-service/internal/database"
	"github.com/iliyamo/airport-service/internal/handler"
	"github.com/iliyamo/airport-service/internal/media"
	"github.com/iliyamo/airport-service/internal/middleware"
	"github.com/iliyamo/airport-service/internal/queue"
	"github.com/iliyamo/airport-service/internal/repository"
	"github.com/iliyamo/airport-service/internal/router"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("database: %v", err)
		}
	}

	users := repository.NewUserRepo(db)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			log.Fatalf("admin bootstrap: %v", err)
		}
		log.Printf("admin account ready: %s", cfg.AdminEmail)
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unavailable: response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	events := config.LoadEventsConfig()
	publisher := queue.NewPublisher(events)
	defer publisher.Close()
	if events.Consumer {
		go func() {
			if err := queue.StartOrderConsumer(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("order-consumer: stopped: %v", err)
			}
		}()
	}

	tickets := repository.NewTicketRepo(db)
	orders := repository.NewOrderRepo(db, tickets)
	flights := repository.NewFlightRepo(db)
	store := media.New(cfg.MediaRoot, cfg.MediaURL, cfg.ImageMaxBytes)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORS())

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb}, cfg.MediaURL, cfg.MediaRoot)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterAPI(e, router.Handlers{
		Crew:         handler.NewCrewHandler(repository.NewCrewRepo(db)),
		Airport:      handler.NewAirportHandler(repository.NewAirportRepo(db)),
		Route:        handler.NewRouteHandler(repository.NewRouteRepo(db)),
		AirplaneType: handler.NewAirplaneTypeHandler(repository.NewAirplaneTypeRepo(db)),
		Airplane:     handler.NewAirplaneHandler(repository.NewAirplaneRepo(db), store),
		Flight:       handler.NewFlightHandler(flights),
		Order:        handler.NewOrderHandler(orders, flights, publisher),
		Ticket:       handler.NewTicketHandler(tickets, orders, flights),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"eshop/internal/config"
	"eshop/internal/handlers"
	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/services"
	"eshop/pkg/logger"
	"eshop/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(viper.New())
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New("eshop", cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
	log.Info("server gracefully stopped")
}

// server bundles the HTTP app with the resources it owns.
type server struct {
	app     *fiber.App
	catalog *services.CatalogService
	events  *rabbitmq.Client
	closers []func() error
}

// Close releases the database and RabbitMQ connections.
func (s *server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// run serves HTTP and consumes catalog events until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	srv, err := newServer(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.WithError(err).Warn("error releasing resources")
		}
	}()

	if cfg.SeedProducts {
		seedProducts(ctx, srv.catalog, log)
	}

	if srv.events != nil {
		if err := srv.events.ConsumeCatalogEvents(catalogEventHandler(log)); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.AppPort).Info("starting server")
		if err := srv.app.Listen(cfg.AppPort); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		return srv.app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}

// newServer opens storage, connects to RabbitMQ when configured and registers routes.
func newServer(cfg config.Config, log *logrus.Logger) (*server, error) {
	srv := &server{}

	var (
		productRepo repositories.ProductRepository
		userRepo    repositories.UserRepository
	)
	if cfg.DatabaseDriver == config.DriverMemory {
		productRepo = repositories.NewMockProductRepository()
		userRepo = repositories.NewMockUserRepository()
	} else {
		db, err := repositories.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		srv.closers = append(srv.closers, sqlDB.Close)
		productRepo = repositories.NewGORMProductRepository(db)
		userRepo = repositories.NewGORMUserRepository(db)
	}
	log.WithField("driver", cfg.DatabaseDriver).Info("catalog storage ready")

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			srv.Close()
			return nil, err
		}
		srv.events = mq
		srv.closers = append(srv.closers, mq.Close)
		publisher = mq
	} else {
		log.Info("RABBITMQ_URL not set, catalog events disabled")
	}

	srv.catalog = services.NewCatalogService(productRepo, publisher, log)
	authService := services.NewAuthService(userRepo, log)

	app := fiber.New(fiber.Config{
		AppName:               "eshop",
		DisableStartupMessage: cfg.AppEnv != "development",
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.AppEnv == "development" {
		app.Use(fiberlogger.New())
	}
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		events := "disabled"
		if srv.events != nil {
			events = "enabled"
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events,
		})
	})

	api := app.Group("/api")
	handlers.NewProductHandler(srv.catalog, log).RegisterRoutes(api)
	handlers.NewAuthHandler(authService, log).RegisterRoutes(api)

	srv.app = app
	return srv, nil
}

// catalogEventHandler logs every catalog event. Malformed messages are rejected
// so the consumer nacks them.
func catalogEventHandler(log logrus.FieldLogger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.CatalogEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("malformed catalog event: %w", err)
		}
		if event.Type == "" || event.ProductID == "" {
			return fmt.Errorf("catalog event missing type or product id")
		}
		log.WithFields(logrus.Fields{
			"event":       event.Type,
			"product_id":  event.ProductID,
			"occurred_at": event.OccurredAt,
		}).Info("catalog event received")
		return nil
	}
}

// seedProducts fills an empty catalog with a few demo products.
func seedProducts(ctx context.Context, catalog *services.CatalogService, log logrus.FieldLogger) {
	existing, err := catalog.List(ctx)
	if err != nil {
		log.WithError(err).Warn("skipping product seed")
		return
	}
	if len(existing) > 0 {
		return
	}

	seed := []models.ProductInput{
		{Title: "Laptop", Description: "High performance laptop", Price: price("1200.00")},
		{Title: "Keyboard", Description: "Mechanical keyboard", Price: price("75.00")},
		{Title: "Mouse", Description: "Ergonomic wireless mouse", Price: price("25.00")},
	}
	for _, input := range seed {
		product, err := catalog.Create(ctx, input)
		if err != nil {
			log.WithError(err).WithField("title", input.Title).Error("error seeding product")
			continue
		}
		log.WithFields(logrus.Fields{"title": product.Title, "id": product.ID}).Debug("seeded product")
	}
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

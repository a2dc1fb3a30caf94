package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kariqs/amexan-market/controllers"
	"github.com/Kariqs/amexan-market/initializers"
	"github.com/Kariqs/amexan-market/messaging"
	"github.com/Kariqs/amexan-market/middlewares"
	"github.com/Kariqs/amexan-market/payment"
	"github.com/Kariqs/amexan-market/routes"
	"github.com/Kariqs/amexan-market/services"
	"github.com/Kariqs/amexan-market/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:  "amexan-market",
		Usage: "multi-vendor marketplace order and fulfillment API",
		Before: func(*cli.Context) error {
			initializers.LoadEnv()
			return nil
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("amexan-market exited")
	}
}

func bootstrap() (*initializers.Config, *gorm.DB, error) {
	cfg, err := initializers.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	initializers.InitLogger(cfg.LogLevel)

	db, err := initializers.ConnectToDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrate(*cli.Context) error {
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	return initializers.SyncDatabase(db)
}

func serve(c *cli.Context) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := initializers.SyncDatabase(db); err != nil {
		return err
	}
	if err := controllers.RegisterValidators(); err != nil {
		return err
	}

	dispatcher, closeDispatcher := newDispatcher(cfg)
	defer closeDispatcher()

	if cfg.PaystackSecretKey == "" {
		log.Warn("PAYSTACK_SECRET_KEY is not set; payment initialization will be rejected")
	}
	gateway := payment.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.GatewayTimeout)

	opts := []services.OrderServiceOption{services.WithDispatcher(dispatcher)}
	if cfg.FromEmail != "" && cfg.SMTPAddress != "" {
		opts = append(opts, services.WithMailer(utils.NewMailer(utils.SMTPConfig{
			From:        cfg.FromEmail,
			Password:    cfg.FromEmailPassword,
			Host:        cfg.FromEmailSMTP,
			Address:     cfg.SMTPAddress,
			FrontendURL: cfg.FrontendURL,
		})))
	}

	controller := &controllers.Controller{
		Orders:      services.NewOrderService(db, services.NewCatalog(db), gateway, cfg.PublicURL, opts...),
		Projections: services.NewProjectionService(db),
		Reviews:     services.NewReviewService(db, dispatcher),
		Saved:       services.NewSavedService(db),
		Products:    services.NewProductService(db),
		FrontendURL: cfg.FrontendURL,
	}

	server := gin.New()
	server.Use(gin.Recovery(), middlewares.RequestLogger())
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.Register(server, controller, routes.Middlewares{
		RequireAuth:  middlewares.RequireAuth(cfg.JWTSecret),
		OptionalAuth: middlewares.OptionalAuth(cfg.JWTSecret),
		RequireAdmin: middlewares.RequireAdmin(),
		Idempotency:  middlewares.Idempotency(newIdempotencyStore(cfg), cfg.IdempotencyTTL),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: server}
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-serverErr:
		return errors.Wrap(err, "failed to start server")
	case <-ctx.Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newDispatcher(cfg *initializers.Config) (services.EventDispatcher, func()) {
	if cfg.RabbitMQURL == "" {
		return messaging.LogDispatcher{}, func() {}
	}
	conn, err := initializers.ConnectToBroker(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Warn("events will only be logged")
		return messaging.LogDispatcher{}, func() {}
	}
	dispatcher, err := messaging.NewRabbitDispatcher(conn, cfg.EventsQueue)
	if err != nil {
		conn.Close()
		log.WithError(err).Warn("events will only be logged")
		return messaging.LogDispatcher{}, func() {}
	}
	return dispatcher, func() {
		dispatcher.Close()
		conn.Close()
	}
}

func newIdempotencyStore(cfg *initializers.Config) middlewares.IdempotencyStore {
	if cfg.RedisAddr == "" {
		return middlewares.NewMemoryIdempotencyStore()
	}
	client, err := initializers.ConnectToRedis(cfg.RedisAddr)
	if err != nil {
		log.WithError(err).Warn("falling back to in-process idempotency keys")
		return middlewares.NewMemoryIdempotencyStore()
	}
	return middlewares.NewRedisIdempotencyStore(client)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/voltcart/storefront-api/internal/config"
	"github.com/voltcart/storefront-api/internal/database"
	"github.com/voltcart/storefront-api/internal/handler"
	"github.com/voltcart/storefront-api/internal/middleware"
	"github.com/voltcart/storefront-api/internal/repository"
	"github.com/voltcart/storefront-api/internal/service"
	"github.com/voltcart/storefront-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.EnsureAdmin(ctx, db, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Error("seed admin account", "error", err)
		os.Exit(1)
	}
	log.Info("database ready", "path", cfg.DB.Path)

	// Redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("connected to Redis")
	}

	// RabbitMQ (optional)
	var (
		amqpConn *amqp.Connection
		amqpCh   *amqp.Channel
	)
	if cfg.RabbitMQ.URL != "" {
		amqpConn, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer amqpConn.Close()

		amqpCh, err = amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer amqpCh.Close()

		if err := worker.SetupRabbitMQ(amqpCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}
		log.Info("connected to RabbitMQ")
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	userSvc := service.NewUserService(userRepo, productRepo, wishlistRepo)
	productSvc := service.NewProductService(productRepo, redisClient)
	orderSvc := service.NewOrderService(orderRepo, productRepo, amqpCh)

	// Handlers
	userH := handler.NewUserHandler(authSvc, userSvc)
	productH := handler.NewProductHandler(productSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	healthH := handler.NewHealthHandler(db, redisClient, amqpConn)

	// Router
	router := gin.Default()
	router.Use(middleware.RequestID())
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	api := router.Group("/api")
	{
		api.POST("/register", userH.Register)
		api.POST("/login", userH.Login)

		api.GET("/products", productH.List)
		api.GET("/products/:id", productH.GetByID)
		api.GET("/categories", productH.ListCategories)

		admin := api.Group("/products", middleware.AuthMiddleware(cfg.JWT.Secret), middleware.AdminOnly())
		admin.POST("", productH.Create)
		admin.PUT("/:id", productH.Update)
		admin.DELETE("/:id", productH.Delete)

		users := api.Group("/users")
		users.GET("/:id", userH.GetProfile)
		users.PUT("/:id", userH.UpdateProfile)
		users.GET("/:id/wishlist", userH.GetWishlist)
		users.POST("/:id/wishlist", userH.AddToWishlist)
		users.DELETE("/:id/wishlist/:productID", userH.RemoveFromWishlist)

		api.POST("/orders", orderH.PlaceOrder)
		api.GET("/orders", middleware.AuthMiddleware(cfg.JWT.Secret), middleware.AdminOnly(), orderH.ListAllOrders)
		api.GET("/orders/:id", orderH.ListUserOrders)
		api.PUT("/orders/:id/status", orderH.UpdateStatus)
		api.PUT("/orders/payments/:id/confirm", orderH.ConfirmPayment)
	}

	// Notifier worker
	var notifier *worker.Notifier
	if amqpCh != nil {
		notifier = worker.NewNotifier(amqpCh, orderRepo, userRepo, redisClient, cfg.SMTP, log)
		if err := notifier.Start(ctx); err != nil {
			log.Error("start order notifier", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	if notifier != nil {
		notifier.Stop()
		time.Sleep(500 * time.Millisecond)
	}
	cancel()
	log.Info("server stopped")
}

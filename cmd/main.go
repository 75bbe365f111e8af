package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/channels"
	"github.com/chronos-ua/chronos-backend/internal/config"
	"github.com/chronos-ua/chronos-backend/internal/database/mongo"
	"github.com/chronos-ua/chronos-backend/internal/database/redis"
	"github.com/chronos-ua/chronos-backend/internal/event"
	"github.com/chronos-ua/chronos-backend/internal/handlers"
	"github.com/chronos-ua/chronos-backend/internal/notify"
	"github.com/chronos-ua/chronos-backend/internal/repository"
	"github.com/chronos-ua/chronos-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/chronos", "log", "backend")
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	slog.SetDefault(slog.New(slog.NewTextHandler(file, nil)))

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment: %v", err)
	}

	cfg := config.New()

	mongoClient, err := mongo.Connect(cfg.MongoCfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Close()

	if err := mongoClient.EnsureIndexes(context.Background()); err != nil {
		log.Printf("Failed to ensure indexes: %v", err)
	}
	db := mongoClient.Database()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)

	// Redis is an accelerator, not a dependency: without it user lookups
	// just hit MongoDB directly.
	redisClient, err := redis.NewRedisClient(cfg.RedisCfg)
	if err != nil {
		log.Printf("Failed to connect to Redis, user caching disabled: %v", err)
	} else {
		defer redisClient.Close()
		userRepo = repository.NewCachedUserRepository(userRepo, redisClient.GetClient())
	}

	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := channels.NewSocketHub()
	go hub.Run(ctx)

	sseBroker := channels.NewSSEBroker()
	pushSender := channels.NewWebPushSender(cfg.VapidCfg)
	emailService := channels.NewEmailService(cfg.SMTPCfg)

	dispatcher := notify.NewDispatcher(hub, sseBroker, pushSender, emailService, userRepo)

	queue := notify.NewQueue(dispatcher, userRepo, emailService, cfg.ReminderCfg.ScheduleWindow)
	reconciler := notify.NewReconciler(queue, eventRepo, cfg.ReminderCfg.FetchInterval, cfg.ReminderCfg.ScheduleWindow)
	go reconciler.Run(ctx)

	publisher := event.NewInvitePublisher(rabbitConn)

	consumer, err := event.NewInviteConsumer(rabbitConn, &event.ConsumerConfig{PrefetchCount: 10}, userRepo, dispatcher)
	if err != nil {
		log.Fatalf("Failed to setup invite consumer: %v", err)
	}
	go func() {
		if err := consumer.StartConsuming(ctx); err != nil {
			log.Printf("Consumer error: %v", err)
		}
	}()
	defer consumer.Close()

	eventService := services.NewEventService(eventRepo, calendarRepo, userRepo, queue, emailService, publisher)
	calendarService := services.NewCalendarService(calendarRepo, userRepo, emailService, publisher)

	router := gin.Default()
	router.GET("/checkhealth", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"pending":  queue.Len(),
			"sockets":  hub.TotalConnections(),
			"rabbitmq": publisher.HealthCheck().IsHealthy,
		})
	})

	auth := handlers.AuthRequired(cfg.JWTSecret)
	api := router.Group("/api/v1")
	handlers.NewNotificationHandler(hub, sseBroker, pushSender, dispatcher, userRepo).RegisterRoutes(api, auth)
	handlers.NewEventHandler(eventService).RegisterRoutes(api, auth)
	handlers.NewCalendarHandler(calendarService).RegisterRoutes(api, auth)

	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler: router,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	cancel()
	queue.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

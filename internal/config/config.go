package config

import (
	"os"
	"strconv"
	"time"
)

type ChronosBackend struct {
	Port        string
	MongoCfg    MongoConfig
	RedisCfg    RedisConfig
	RabbitMQCfg RabbitMQConfig
	SMTPCfg     SMTPConfig
	VapidCfg    VapidConfig
	JWTSecret   string
	ReminderCfg ReminderConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type VapidConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

type ReminderConfig struct {
	// FetchInterval is how often the reconciler re-reads upcoming events.
	FetchInterval time.Duration
	// ScheduleWindow is how far ahead timers are armed.
	ScheduleWindow time.Duration
}

func New() *ChronosBackend {
	return &ChronosBackend{
		Port: getEnvOrDefault("PORT", "8080"),
		MongoCfg: MongoConfig{
			URI:      getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnvOrDefault("MONGO_DATABASE", "chronos"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		RabbitMQCfg: RabbitMQConfig{
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
		},
		SMTPCfg: SMTPConfig{
			Host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvIntOrDefault("SMTP_PORT", 587),
			Username: getEnvOrDefault("SMTP_EMAIL", ""),
			Password: getEnvOrDefault("SMTP_PASSWORD", ""),
			From:     getEnvOrDefault("EMAIL_FROM", ""),
		},
		VapidCfg: VapidConfig{
			PublicKey:  getEnvOrDefault("VAPID_PUBLIC_KEY", ""),
			PrivateKey: getEnvOrDefault("VAPID_PRIVATE_KEY", ""),
			Subscriber: getEnvOrDefault("VAPID_SUBSCRIBER", "mailto:admin@example.com"),
		},
		JWTSecret: getEnvOrDefault("JWT_SECRET", "dev-secret"),
		ReminderCfg: ReminderConfig{
			FetchInterval:  getEnvDurationOrDefault("REMINDER_FETCH_INTERVAL", 5*time.Minute),
			ScheduleWindow: getEnvDurationOrDefault("REMINDER_SCHEDULE_WINDOW", time.Hour),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

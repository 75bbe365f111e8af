package event

import (
	"fmt"
	"log/slog"

	"github.com/chronos-ua/chronos-backend/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConnection wraps the broker connection plus the publish channel.
// Consumers open their own channels off Connection so publisher and consumer
// traffic never share one.
type RabbitMQConnection struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
}

func amqpURI(cfg config.RabbitMQConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.Username, cfg.Password, cfg.Host, cfg.Port)
}

// ConnectRabbitMQ dials the broker and opens the publish channel.
func ConnectRabbitMQ(cfg config.RabbitMQConfig) (*RabbitMQConnection, error) {
	conn, err := amqp.Dial(amqpURI(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	slog.Info("connected to RabbitMQ", "host", cfg.Host, "port", cfg.Port)
	return &RabbitMQConnection{Connection: conn, Channel: ch}, nil
}

// Close tears down the channel, then the connection.
func (r *RabbitMQConnection) Close() error {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			slog.Error("failed to close RabbitMQ channel", "error", err)
		}
	}
	if r.Connection != nil {
		if err := r.Connection.Close(); err != nil {
			return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
		}
	}
	return nil
}

package config

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OpenRabbit 连接 RabbitMQ 并声明投票事件队列；url 为空时返回 nil, nil
func OpenRabbit(cfg *Config) (*amqp.Connection, *amqp.Channel, error) {
	url := cfg.RabbitMQ.Url
	if url == "" {
		return nil, nil, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	qname := cfg.RabbitMQ.Queue
	if qname == "" {
		qname = "vote.events"
	}
	if _, err := ch.QueueDeclare(qname, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare RabbitMQ queue: %w", err)
	}

	return conn, ch, nil
}

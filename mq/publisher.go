package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"breadit/services"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel 发布所需的 amqp.Channel 子集
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitPublisher 把投票事件以 JSON 写入持久化队列
type RabbitPublisher struct {
	ch    Channel
	queue string
}

func NewRabbitPublisher(ch Channel, queue string) *RabbitPublisher {
	if queue == "" {
		queue = "vote.events"
	}
	return &RabbitPublisher{ch: ch, queue: queue}
}

func (p *RabbitPublisher) PublishVote(ctx context.Context, event services.VoteEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal vote event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         "vote." + string(event.Action),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish vote event: %w", err)
	}
	return nil
}

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"workforce-hub/backend/config"
)

// RabbitPublisher 组织架构变更事件发布者
type RabbitPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewRabbitPublisher 建立连接并声明 exchange / queue / binding
func NewRabbitPublisher(cfg *config.MQConfig, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("打开 RabbitMQ channel 失败: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("声明 exchange 失败: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("声明 queue 失败: %w", err)
	}
	if err := ch.QueueBind(cfg.Queue, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("绑定 queue 失败: %w", err)
	}

	logger.Info("RabbitMQ 连接成功",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue),
	)

	return &RabbitPublisher{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// Publish 以 JSON 持久化消息发布
func (r *RabbitPublisher) Publish(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.channel.PublishWithContext(ctx,
		r.exchange,
		r.routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
}

// Close 关闭 channel 与连接
func (r *RabbitPublisher) Close() {
	if err := r.channel.Close(); err != nil {
		r.logger.Warn("关闭 RabbitMQ channel 失败", zap.Error(err))
	}
	if err := r.conn.Close(); err != nil {
		r.logger.Warn("关闭 RabbitMQ 连接失败", zap.Error(err))
	}
}

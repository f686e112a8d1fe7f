package mq

import (
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"tasktracker/pkg/circuitbreaker"
)

const ExchangeName = "tracker.events"

type Publisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	breaker *circuitbreaker.CircuitBreaker
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:    conn,
		channel: ch,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}, nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// IsConnected reports whether the publisher connection is still alive.
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.channel != nil && !p.conn.IsClosed()
}

// Publish sends an event to the exchange with the given routing key.
// Publishes go through a circuit breaker so a dead broker does not slow
// down every task mutation.
func (p *Publisher) Publish(routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.breaker.Execute(func() error {
		return p.publish(routingKey, body)
	})
}

func (p *Publisher) publish(routingKey string, body []byte) error {
	return p.channel.Publish(
		ExchangeName,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
		},
	)
}

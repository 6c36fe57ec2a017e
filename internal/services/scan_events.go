package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lowilleq/exterra/internal/models"
)

// ScanEvent is the message published after a scan is stored.
type ScanEvent struct {
	ScanID        string    `json:"scan_id"`
	ProductID     string    `json:"product_id"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Locale        string    `json:"locale,omitempty"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// ScanEventFromModel builds the event for a stored scan.
func ScanEventFromModel(scan *models.Scan) ScanEvent {
	event := ScanEvent{
		ScanID:    scan.ID.String(),
		ProductID: scan.ProductID.String(),
		ScannedAt: scan.ScannedAt,
	}
	if scan.CustomerEmail != nil {
		event.CustomerEmail = *scan.CustomerEmail
	}
	if scan.Locale != nil {
		event.Locale = *scan.Locale
	}
	return event
}

// ScanPublisher fans stored scans out to downstream consumers.
type ScanPublisher interface {
	PublishScan(ctx context.Context, event ScanEvent) error
}

// NoopScanPublisher drops every event.
type NoopScanPublisher struct{}

func (NoopScanPublisher) PublishScan(context.Context, ScanEvent) error { return nil }

// ScanRoutingKey is the routing key of every scan event.
const ScanRoutingKey = "scan.recorded"

// AMQPScanPublisher publishes scan events to a topic exchange. amqp
// channels are not safe for concurrent publishing, so publishes are
// serialized.
type AMQPScanPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewAMQPScanPublisher dials url and declares a durable topic exchange.
func NewAMQPScanPublisher(url, exchange string) (*AMQPScanPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Printf("[AMQP] publishing scans to exchange %s", exchange)
	return &AMQPScanPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishScan sends event as a persistent JSON message.
func (p *AMQPScanPublisher) PublishScan(ctx context.Context, event ScanEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, p.exchange, ScanRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ScanID,
		Timestamp:    event.ScannedAt,
		Body:         body,
	})
}

// Close releases the channel and connection.
func (p *AMQPScanPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

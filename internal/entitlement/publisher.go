package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Entitlement is the right to access purchased courses. One is granted only
// after a payment has been verified server-side.
type Entitlement struct {
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	ItemIDs   []string  `json:"item_ids"`
	Amount    int64     `json:"amount"`
	GrantedAt time.Time `json:"granted_at"`
}

type Granter interface {
	Grant(ctx context.Context, e Entitlement) error
}

// KafkaPublisher emits granted entitlements for downstream services
// (course access, receipts, notifications).
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "entitlement-granted",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Grant(ctx context.Context, e Entitlement) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entitlement: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.UserID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish entitlement for order %s: %w", e.OrderID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

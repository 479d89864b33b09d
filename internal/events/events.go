// Package events is the admin event stream: every noteworthy transition is
// logged, mirrored to the admin chats, and, when brokers are configured,
// published to a Kafka topic for downstream reconciliation tooling. All of
// it is best-effort; a failed publish never fails the operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ndenisov/groupgate/internal/transport"
)

type Type string

const (
	PaymentMatched     Type = "payment_matched"
	PaymentUnmatched   Type = "payment_unmatched"
	PaymentQuarantined Type = "payment_quarantined"
	InviteFailed       Type = "invite_failed"
	AccessGranted      Type = "access_granted"
	AccessRevoked      Type = "access_revoked"
	RevokeFailed       Type = "revoke_failed"
)

type Event struct {
	Type   Type           `json:"type"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

//go:generate mockgen -source=events.go -destination=events_mock.go -package=events
type Publisher interface {
	Publish(ctx context.Context, typ Type, fields map[string]any)
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type AdminPublisher struct {
	writer       kafkaWriter
	transport    transport.Transport
	adminChatIDs []int64
}

// New builds the publisher. brokers may be empty (no Kafka), tr may be nil
// (no admin chat mirror); the zap log always happens.
func New(brokers []string, topic string, tr transport.Transport, adminChatIDs []int64) *AdminPublisher {
	p := &AdminPublisher{
		transport:    tr,
		adminChatIDs: adminChatIDs,
	}
	if len(brokers) > 0 {
		p.writer = &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return p
}

func (p *AdminPublisher) Publish(ctx context.Context, typ Type, fields map[string]any) {
	event := Event{Type: typ, At: time.Now().UTC(), Fields: fields}

	logFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		logFields = append(logFields, zap.Any(k, v))
	}
	zap.L().Info(string(typ), logFields...)

	payload, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("can't encode event", zap.String("type", string(typ)), zap.Error(err))
		return
	}

	if p.writer != nil {
		if err := p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(typ),
			Value: payload,
		}); err != nil {
			zap.L().Error("kafka publish failed", zap.String("type", string(typ)), zap.Error(err))
		}
	}

	if p.transport != nil {
		text := "[" + string(typ) + "] " + string(payload)
		var g errgroup.Group
		for _, chatID := range p.adminChatIDs {
			chatID := chatID
			g.Go(func() error {
				if err := p.transport.SendMessage(ctx, chatID, text); err != nil {
					zap.L().Warn("admin notification failed", zap.Int64("chatID", chatID), zap.Error(err))
				}
				return nil
			})
		}
		g.Wait()
	}
}

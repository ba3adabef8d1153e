package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/catalog-storefront/internal/lead"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Notification is the flattened view of a lead event handed to a Notifier.
type Notification struct {
	EventID   string
	EventType string
	LeadID    string
	Name      string
	Email     string
	Subject   string
	Timestamp time.Time
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type LeadListener struct {
	reader   MessageReader
	notifier Notifier
	logger   logger.ZapLogger
}

func NewLeadListener(reader MessageReader, notifier Notifier, log logger.ZapLogger) *LeadListener {
	return &LeadListener{
		reader:   reader,
		notifier: notifier,
		logger:   log,
	}
}

func (l *LeadListener) Start(ctx context.Context) {
	l.logger.Info("Starting lead event listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping lead event listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type leadEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   leadPayload `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// leadPayload covers the fields shared by enquiries, subscriptions and
// catalogue requests.
type leadPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Subject     *string `json:"subject"`
	ProductName string  `json:"product_name"`
}

func (l *LeadListener) processMessage(ctx context.Context, value []byte) {
	var event leadEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal lead event", zap.Error(err))
		return
	}

	n := Notification{
		EventID:   event.EventID,
		EventType: event.EventType,
		LeadID:    event.Payload.ID,
		Name:      event.Payload.Name,
		Email:     event.Payload.Email,
		Timestamp: event.Timestamp,
	}
	switch event.EventType {
	case lead.EventContactSubmitted:
		if event.Payload.Subject != nil {
			n.Subject = *event.Payload.Subject
		}
	case lead.EventCatalogueRequested:
		n.Subject = event.Payload.ProductName
	case lead.EventNewsletterJoined, lead.EventNewsletterLeft:
	default:
		return
	}

	if err := l.notifier.Notify(ctx, n); err != nil {
		l.logger.Error("Failed to deliver lead notification",
			zap.String("event_id", n.EventID),
			zap.String("event_type", n.EventType),
			zap.Error(err),
		)
	}
}

// LogNotifier writes each notification as a structured log line.
type LogNotifier struct {
	Logger logger.ZapLogger
}

func (n LogNotifier) Notify(_ context.Context, note Notification) error {
	n.Logger.Info("new lead",
		zap.String("event_type", note.EventType),
		zap.String("lead_id", note.LeadID),
		zap.String("name", note.Name),
		zap.String("email", note.Email),
		zap.String("subject", note.Subject),
		zap.Time("at", note.Timestamp),
	)
	return nil
}

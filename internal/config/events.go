package config

import (
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/events"
)

// EventConfig selects and configures the notification event transport.
type EventConfig struct {
	Enabled           bool
	Publisher         string // kafka or mock
	KafkaBrokers      string // comma-separated
	NotificationTopic string
}

func (c *EventConfig) BrokerList() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateEventPublisher builds the configured publisher. Disabled or unknown
// transports fall back to the in-memory mock so the service still boots.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.NotificationTopic)
		return events.NewKafkaEventPublisher(c.BrokerList(), c.NotificationTopic, logger)
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}
}

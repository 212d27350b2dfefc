package notification

import (
	"context"

	"go.uber.org/zap"
)

// Message is one outbound notification. Subject is ignored by channels
// that have no subject line.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Channel delivers a message over one transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Channels groups the transports the fan-out writes to.
type Channels struct {
	Email Channel
	SMS   Channel
}

// NoOpChannel logs instead of delivering. Used when notifications are
// disabled.
type NoOpChannel struct {
	name string
	log  *zap.Logger
}

func NewNoOpChannel(name string, log *zap.Logger) *NoOpChannel {
	return &NoOpChannel{name: name, log: log}
}

func (c *NoOpChannel) Name() string { return c.name }

func (c *NoOpChannel) Send(_ context.Context, msg Message) error {
	c.log.Debug("notification suppressed",
		zap.String("channel", c.name),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = -1 // infinite
	natsReconnectWait = 2 * time.Second
)

// Publisher emits count events. Publishing is best effort: callers log
// failures but never fail the originating request on one.
type Publisher interface {
	Publish(ctx context.Context, event CountEvent) error
}

// NoopPublisher drops events; used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event CountEvent) error { return nil }

// NATSPublisher publishes count events to NATS under
// <prefix>.count.<eventType>.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher connects to NATS and returns a publisher.
func NewNATSPublisher(natsURL, prefix string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, prefix: prefix}, nil
}

// Publish sends the event envelope to its subject.
func (p *NATSPublisher) Publish(ctx context.Context, event CountEvent) error {
	subject := fmt.Sprintf("%s.count.%s", p.prefix, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", event.ID.String()).
		Str("user_id", event.UserID.String()).
		Msg("published count event")
	return nil
}

// Close drains the NATS connection.
func (p *NATSPublisher) Close() {
	p.nc.Close()
}

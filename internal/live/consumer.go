package live

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// EventConsumer subscribes to the count event stream and forwards every
// event to the hub. Dashboards only need what happens from now on, so this
// is a plain core subscription with no replay.
type EventConsumer struct {
	hub *Hub
	nc  *nats.Conn
	sub *nats.Subscription
}

// NewEventConsumer connects to NATS and subscribes to <prefix>.count.>.
func NewEventConsumer(hub *Hub, natsURL, prefix string) (*EventConsumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	ec := &EventConsumer{hub: hub, nc: nc}
	subject := fmt.Sprintf("%s.count.>", prefix)
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		log.Debug().Str("subject", msg.Subject).Msg("forwarding count event to dashboards")
		hub.Broadcast(msg.Data)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	ec.sub = sub

	log.Info().Str("subject", subject).Msg("live event consumer subscribed")
	return ec, nil
}

// Close unsubscribes and drops the NATS connection.
func (ec *EventConsumer) Close() {
	if ec.sub != nil {
		_ = ec.sub.Unsubscribe()
	}
	ec.nc.Close()
}

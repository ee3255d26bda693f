package chat

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubjectPrefix is prepended to a room id to form its pub/sub subject.
const SubjectPrefix = "chat"

// Subject returns the pub/sub subject for a room.
func Subject(roomID string) string {
	return SubjectPrefix + "." + roomID
}

// Bus is the pub/sub transport rooms publish to and subscribe on.
type Bus interface {
	Publish(subject string, data []byte) error
	// Subscribe delivers every payload on subject to handler until the
	// returned func is called.
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func() error, err error)
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int // -1 for infinite
}

// DefaultNATSConfig returns the settings used when only a URL is configured.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		Name:          "portalwatch",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// NATSBus is a Bus over a NATS connection.
type NATSBus struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// ConnectNATS dials NATS and returns a ready bus. It fails if the initial
// connection fails; later disconnects are retried by the client.
func ConnectNATS(cfg NATSConfig, logger zerolog.Logger) (*NATSBus, error) {
	logger = logger.With().Str("component", "nats").Logger()
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Debug().Msg("connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.Info().Str("url", nc.ConnectedUrl()).Msg("connected")
	return &NATSBus{conn: nc, log: logger}, nil
}

// Publish sends data to subject.
func (b *NATSBus) Publish(subject string, data []byte) error {
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler for subject.
func (b *NATSBus) Subscribe(subject string, handler func(data []byte)) (func() error, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}
	return func() error {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("nats unsubscribe %s: %w", subject, err)
		}
		return nil
	}, nil
}

// Close drains the connection.
func (b *NATSBus) Close() {
	if err := b.conn.Drain(); err != nil {
		b.log.Debug().Err(err).Msg("connection drain")
	}
}

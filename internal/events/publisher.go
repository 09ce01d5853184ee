package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Publisher receives every accepted room event. Implementations must not
// block room processing.
type Publisher interface {
	Publish(code string, event Event)
}

// NopPublisher discards events. Used when no event sink is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, Event) {}

// JetStreamPublisherConfig holds configuration for the NATS event sink.
type JetStreamPublisherConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultJetStreamPublisherConfig returns the default sink configuration.
func DefaultJetStreamPublisherConfig(url string) JetStreamPublisherConfig {
	return JetStreamPublisherConfig{
		URL:           url,
		StreamName:    "GAME_EVENTS",
		SubjectPrefix: "game.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// JetStreamPublisher mirrors every room broadcast onto a JetStream stream
// so external consumers (stats, audit) can replay the game's event
// history. Publishing is async and never blocks a room.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamPublisherConfig
}

// NewJetStreamPublisher connects to NATS and ensures the stream exists.
func NewJetStreamPublisher(ctx context.Context, config JetStreamPublisherConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     config.StreamName,
		Subjects: []string{config.SubjectPrefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return &JetStreamPublisher{nc: nc, js: js, config: config}, nil
}

// Publish mirrors the event onto game.events.<code>.<type>. Secrets are
// stripped before leaving the process.
func (p *JetStreamPublisher) Publish(code string, event Event) {
	data, err := json.Marshal(event.Redacted())
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for publish")
		return
	}
	subject := fmt.Sprintf("%s.%s.%s", p.config.SubjectPrefix, code, event.Type)
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// Close drains the NATS connection.
func (p *JetStreamPublisher) Close() {
	p.nc.Close()
}

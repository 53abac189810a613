package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	SubjectImageUploaded = "images.uploaded"
	SubjectImageDeleted  = "images.deleted"

	eventStream = "image-events"
)

// ImageEvent is published after an upload or delete completes.
type ImageEvent struct {
	Action     string    `json:"action"`
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Backend    string    `json:"backend"`
	Size       *int64    `json:"size,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher announces image lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event ImageEvent) error
}

// NATSPublisher publishes events to a JetStream stream.
type NATSPublisher struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	log zerolog.Logger
}

// ConnectNATS connects, initializes JetStream and makes sure the event
// stream exists.
func ConnectNATS(url string, log zerolog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("image-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info().Msg("connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	p := &NATSPublisher{nc: nc, js: js, log: log}
	if err := p.ensureStream(); err != nil {
		log.Warn().Err(err).Str("stream", eventStream).Msg("failed to ensure stream")
	}

	log.Info().Str("url", url).Msg("connected and JetStream initialized")
	return p, nil
}

func (p *NATSPublisher) ensureStream() error {
	if _, err := p.js.StreamInfo(eventStream); err == nil {
		return nil
	}
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     eventStream,
		Subjects: []string{"images.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// Publish sends event with a unique message id for JetStream dedup.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event ImageEvent) error {
	if p == nil || p.js == nil {
		return errors.New("jetstream not initialized")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.MsgId(uuid.NewString()), nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p != nil && p.nc != nil && !p.nc.IsClosed() {
		_ = p.nc.Drain()
	}
}

var _ EventPublisher = (*NATSPublisher)(nil)

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// natsSink publica los eventos de dominio en NATS, un evento por
// subject: <prefix>.<event>.
type natsSink struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSSink conecta a NATS y crea el sink.
func NewNATSSink(url, prefix string) (Sink, error) {
	nc, err := nats.Connect(url, nats.Name("janus"))
	if err != nil {
		return nil, fmt.Errorf("events: nats connect: %w", err)
	}
	return &natsSink{nc: nc, prefix: prefix}, nil
}

func (s *natsSink) Publish(ctx context.Context, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: encode payload: %w", err)
	}
	subject := s.prefix + "." + event
	if err := s.nc.Publish(subject, b); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	return nil
}

func (s *natsSink) Close() error {
	return s.nc.Drain()
}

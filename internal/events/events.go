// Package events publica eventos de dominio para consumidores externos
// (sincronización de perfiles, mapping, analytics). Publicar es
// fire-and-forget: un fallo se loguea pero nunca bloquea el login.
package events

import (
	"context"
	"encoding/json"

	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// Nombres de eventos emitidos por el core.
const (
	ProfileReceived = "profile.received"
	ProfileLinked   = "profile.linked"
)

// Sink recibe los eventos publicados.
type Sink interface {
	Publish(ctx context.Context, event string, payload any) error
	Close() error
}

// logSink escribe los eventos al log estructurado. Es el sink default.
type logSink struct{}

// NewLogSink crea un sink que solo loguea.
func NewLogSink() Sink { return logSink{} }

func (logSink) Publish(ctx context.Context, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	logger.From(ctx).Named("events").Info("event published",
		logger.String("event", event),
		logger.String("payload", string(b)),
	)
	return nil
}

func (logSink) Close() error { return nil }

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// Record writes a structured audit record. Every successful identity
// link emits one: who got linked to what, when.
func Record(ctx context.Context, event string, fields map[string]any) {
	zfields := make([]zap.Field, 0, len(fields)+3)
	zfields = append(zfields,
		zap.String("audit_id", uuid.NewString()),
		zap.String("event", event),
		zap.Time("ts", time.Now().UTC()),
	)
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}
	logger.From(ctx).Named("audit").Info(event, zfields...)
}

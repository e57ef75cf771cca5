package service

import (
	"context"
	"errors"
	"time"

	"caskledger/internal/apierror"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("caskledger/service")

// Cache is the slice of the Redis cache the services need. Implementations
// must tolerate being unavailable: a failed Get is a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const statsCacheKey = "cask:stats"

// invalidateStats drops the cached dashboard figures after a committed write.
func invalidateStats(ctx context.Context, cache Cache) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, statsCacheKey); err != nil {
		log.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

// fail classifies err, records it on the span and in metrics and returns the
// *apierror.Error the caller sees. Unclassified errors become persistence
// errors with detail as their client-safe message.
func fail(span trace.Span, op, detail string, err error) error {
	e, ok := apierror.As(err)
	if !ok {
		e = apierror.Persistence(detail, err)
		log.Error().Err(err).Str("op", op).Msg(detail)
	}
	ledgerErrors.WithLabelValues(op, string(e.Kind)).Inc()
	span.RecordError(e)
	span.SetStatus(codes.Error, string(e.Kind))
	return e
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.Validation("%s must be a valid UUID", field)
	}
	return id, nil
}

func strPtr(s string) *string { return &s }

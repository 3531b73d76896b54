package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atrium-hq/atrium/pkg/constants"
)

var (
	ErrNoTenant  = errors.New("tenant not found in context")
	ErrNoSegment = errors.New("segment not found in context")
)

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

// UseTenantID returns the tenant scope of the current request or worker run.
// Every repository query is constrained by it.
func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(constants.TenantIDKey)
	if v == nil {
		return uuid.Nil, ErrNoTenant
	}
	return v.(uuid.UUID), nil
}

func WithSegmentID(ctx context.Context, segmentID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.SegmentIDKey, segmentID)
}

// UseSegmentID returns the active segment. Manual affiliations and activity
// attribution are segment-scoped; everything else only needs the tenant.
func UseSegmentID(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(constants.SegmentIDKey)
	if v == nil {
		return uuid.Nil, ErrNoSegment
	}
	return v.(uuid.UUID), nil
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped logger, falling back to the standard
// logger when none was installed (worker entrypoints, tests).
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger.(*logrus.Entry)
}

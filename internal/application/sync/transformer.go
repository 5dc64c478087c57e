package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/mapping"
)

// SourceFunc wraps a raw record in the mapping source matching its shape
type SourceFunc func(raw integration.RawRecord) (mapping.Source, error)

// BuildFunc assembles the canonical record from the mapped field bag.
// Vendor adapters hang their post-processing here: structured fields the
// loader special-cases (balance, voided, settlement lines) are lifted out
// of the bag and split allocation runs for payments.
type BuildFunc func(profile *integration.SyncProfile, fields map[string]any, raw integration.RawRecord) (integration.Record, error)

// MappingTransformer is the shared Transformer implementation: declarative
// field mapping, then filters, then a vendor build hook. A record rejected
// by any filter yields (nil, nil) and is skipped silently upstream.
type MappingTransformer struct {
	objectType integration.ObjectType
	fields     []mapping.Field
	filters    []*mapping.Filter
	source     SourceFunc
	build      BuildFunc
	logger     *zap.Logger

	profile  *integration.SyncProfile
	location *time.Location
}

// NewMappingTransformer builds a transformer from a vendor mapping catalog.
// Filter expressions are parsed once; a malformed expression never matches,
// so it drops every record rather than failing the sync.
func NewMappingTransformer(
	objectType integration.ObjectType,
	fields []mapping.Field,
	filterExprs []string,
	source SourceFunc,
	build BuildFunc,
	logger *zap.Logger,
) *MappingTransformer {
	filters := make([]*mapping.Filter, 0, len(filterExprs))
	for _, expr := range filterExprs {
		f, err := mapping.ParseFilter(expr)
		if err != nil {
			logger.Warn("invalid transform filter, treating as never matching",
				zap.String("object_type", objectType.String()),
				zap.String("expression", expr),
				zap.Error(err))
			f = nil
		}
		filters = append(filters, f)
	}
	return &MappingTransformer{
		objectType: objectType,
		fields:     fields,
		filters:    filters,
		source:     source,
		build:      build,
		logger:     logger,
	}
}

// Initialize primes the transformer with the tenant's profile
func (t *MappingTransformer) Initialize(ctx context.Context, account integration.Account, profile *integration.SyncProfile) error {
	if profile == nil {
		return integration.ErrProfileNotFound
	}
	t.profile = profile
	t.location = profile.Location()
	return nil
}

// Transform maps the raw record to its canonical form. A nil record with a
// nil error means a filter rejected it.
func (t *MappingTransformer) Transform(ctx context.Context, raw integration.RawRecord) (integration.Record, error) {
	if t.profile == nil {
		return nil, fmt.Errorf("sync: transformer for %s not initialized", t.objectType)
	}

	src, err := t.source(raw)
	if err != nil {
		return nil, err
	}

	fields, err := mapping.Transform(t.fields, src, mapping.Options{Location: t.location})
	if err != nil {
		return nil, err
	}

	for _, f := range t.filters {
		if f == nil || !f.Matches(fields) {
			return nil, nil
		}
	}

	return t.build(t.profile, fields, raw)
}

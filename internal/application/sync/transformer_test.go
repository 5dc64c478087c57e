package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/mapping"
)

func documentSource(raw integration.RawRecord) (mapping.Source, error) {
	return mapping.NewDocumentSource(raw), nil
}

func buildCustomer(profile *integration.SyncProfile, fields map[string]any, raw integration.RawRecord) (integration.Record, error) {
	external, _ := fields["external_id"].(string)
	return &integration.Customer{
		IntegrationID: profile.ID,
		ExternalID:    external,
		Values:        fields,
	}, nil
}

func customerFields() []mapping.Field {
	return []mapping.Field{
		{SourcePath: "Id", DestinationPath: "external_id", Type: mapping.TypeString},
		{SourcePath: "DisplayName", DestinationPath: "name", Type: mapping.TypeString},
		{SourcePath: "Active", DestinationPath: "active", Type: mapping.TypeBoolean},
	}
}

func TestMappingTransformerMapsAndBuilds(t *testing.T) {
	profile := newTestProfile(t)
	tr := NewMappingTransformer(
		integration.ObjectTypeCustomer,
		customerFields(),
		nil,
		documentSource,
		buildCustomer,
		zap.NewNop(),
	)
	require.NoError(t, tr.Initialize(context.Background(), integration.Account{}, profile))

	rec, err := tr.Transform(context.Background(), map[string]any{
		"Id":          "CUST-1",
		"DisplayName": " Acme Corp ",
		"Active":      "true",
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	customer, ok := rec.(*integration.Customer)
	require.True(t, ok)
	assert.Equal(t, "CUST-1", customer.ExternalID)
	assert.Equal(t, profile.ID, customer.IntegrationID)
	assert.Equal(t, "Acme Corp", customer.Values["name"])
	assert.Equal(t, true, customer.Values["active"])
}

func TestMappingTransformerFilterRejects(t *testing.T) {
	profile := newTestProfile(t)
	tr := NewMappingTransformer(
		integration.ObjectTypeCustomer,
		customerFields(),
		[]string{`active == true`},
		documentSource,
		buildCustomer,
		zap.NewNop(),
	)
	require.NoError(t, tr.Initialize(context.Background(), integration.Account{}, profile))

	rec, err := tr.Transform(context.Background(), map[string]any{
		"Id":          "CUST-2",
		"DisplayName": "Gone Ltd",
		"Active":      "false",
	})
	require.NoError(t, err, "a filter rejection is not an error")
	assert.Nil(t, rec)

	rec, err = tr.Transform(context.Background(), map[string]any{
		"Id":          "CUST-3",
		"DisplayName": "Here Inc",
		"Active":      "true",
	})
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestMappingTransformerMalformedFilterDropsEverything(t *testing.T) {
	profile := newTestProfile(t)
	tr := NewMappingTransformer(
		integration.ObjectTypeCustomer,
		customerFields(),
		[]string{`active == `},
		documentSource,
		buildCustomer,
		zap.NewNop(),
	)
	require.NoError(t, tr.Initialize(context.Background(), integration.Account{}, profile))

	rec, err := tr.Transform(context.Background(), map[string]any{
		"Id":     "CUST-4",
		"Active": "true",
	})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMappingTransformerRequiresInitialize(t *testing.T) {
	tr := NewMappingTransformer(
		integration.ObjectTypeCustomer,
		customerFields(),
		nil,
		documentSource,
		buildCustomer,
		zap.NewNop(),
	)

	_, err := tr.Transform(context.Background(), map[string]any{"Id": "CUST-5"})
	assert.Error(t, err)
}

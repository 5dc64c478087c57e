package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booksync/backend/internal/domain/integration"
)

func testAccount() integration.Account {
	return integration.Account{
		TenantID:    uuid.New(),
		Name:        "Acme Corp",
		Credentials: map[string]string{"access_token": "tok-123"},
	}
}

func testExtractorConfig(baseURL string) RESTExtractorConfig {
	return RESTExtractorConfig{
		ObjectType:       integration.ObjectTypeInvoice,
		BaseURL:          baseURL,
		ListPath:         "/v3/invoices",
		ObjectPathFormat: "/v3/invoices/%s",
		ItemsField:       "items",
		IDField:          "Id",
		SinceParam:       "modified_since",
		PageParam:        "page",
		PageSizeParam:    "page_size",
		PageSize:         2,
		CredentialKey:    "access_token",
		Timeout:          5 * time.Second,
	}
}

func TestRESTExtractorPagesThroughResults(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("modified_since"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var items []map[string]any
		switch page {
		case 1:
			items = []map[string]any{{"Id": "inv-1"}, {"Id": "inv-2"}}
		case 2:
			items = []map[string]any{{"Id": "inv-3"}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}))
	defer server.Close()

	extractor, err := NewRESTExtractor(testExtractorConfig(server.URL))
	require.NoError(t, err)

	ctx := context.Background()
	profile, err := integration.NewSyncProfile(uuid.New(), integration.IntegrationTypeQuickBooks)
	require.NoError(t, err)
	require.NoError(t, extractor.Initialize(ctx, testAccount(), profile))

	query := integration.NewOngoingQuery(time.Now().Add(-time.Hour), nil)
	iter, err := extractor.GetObjects(ctx, profile, query)
	require.NoError(t, err)

	var ids []string
	for {
		record, ok, err := iter.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		id, err := extractor.ObjectID(record)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	assert.Equal(t, []string{"inv-1", "inv-2", "inv-3"}, ids)
	// Page 2 was short, so page 3 is never requested
	assert.Len(t, requests, 2)
}

func TestRESTExtractorGetObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/invoices/inv-42", r.URL.Path)
		fmt.Fprint(w, `{"Id": "inv-42", "total": 125.50}`)
	}))
	defer server.Close()

	extractor, err := NewRESTExtractor(testExtractorConfig(server.URL))
	require.NoError(t, err)

	ctx := context.Background()
	profile, err := integration.NewSyncProfile(uuid.New(), integration.IntegrationTypeQuickBooks)
	require.NoError(t, err)
	require.NoError(t, extractor.Initialize(ctx, testAccount(), profile))

	record, err := extractor.GetObject(ctx, "inv-42")
	require.NoError(t, err)

	doc, ok := record.(map[string]any)
	require.True(t, ok)
	// Numbers survive as json.Number, not float64
	assert.Equal(t, json.Number("125.50"), doc["total"])
}

func TestRESTExtractorQueryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	extractor, err := NewRESTExtractor(testExtractorConfig(server.URL))
	require.NoError(t, err)

	ctx := context.Background()
	profile, err := integration.NewSyncProfile(uuid.New(), integration.IntegrationTypeQuickBooks)
	require.NoError(t, err)
	require.NoError(t, extractor.Initialize(ctx, testAccount(), profile))

	iter, err := extractor.GetObjects(ctx, profile, integration.NewOngoingQuery(time.Now(), nil))
	require.NoError(t, err)

	_, _, err = iter.Next(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestRESTExtractorRequiresCredential(t *testing.T) {
	extractor, err := NewRESTExtractor(testExtractorConfig("https://api.example.com"))
	require.NoError(t, err)

	profile, err := integration.NewSyncProfile(uuid.New(), integration.IntegrationTypeQuickBooks)
	require.NoError(t, err)

	account := testAccount()
	delete(account.Credentials, "access_token")
	err = extractor.Initialize(context.Background(), account, profile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing credential")
}

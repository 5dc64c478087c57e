package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/booksync/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from a vendor API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// defaultPageSize is used when the adapter config does not set one
const defaultPageSize = 100

// RESTExtractorConfig parametrizes the generic paged JSON extractor for
// one vendor endpoint. Vendor adapters supply one config per object type.
type RESTExtractorConfig struct {
	// ObjectType is the canonical object type this endpoint serves
	ObjectType integration.ObjectType
	// BaseURL is the vendor API root, e.g. "https://api.vendor.com"
	BaseURL string
	// ListPath is the collection endpoint, e.g. "/v3/invoices"
	ListPath string
	// ObjectPathFormat builds the single-object endpoint from the external
	// id, e.g. "/v3/invoices/%s"
	ObjectPathFormat string
	// ItemsField is the response field holding the page's records; empty
	// when the response body is the array itself
	ItemsField string
	// IDField is the record field carrying the external id
	IDField string
	// SinceParam is the modified-since query parameter name
	SinceParam string
	// PageParam and PageSizeParam control paging
	PageParam     string
	PageSizeParam string
	PageSize      int
	// AuthHeader is the header carrying the credential, default Authorization
	AuthHeader string
	// CredentialKey selects the account credential used for auth
	CredentialKey string
	// Timeout bounds each request to the vendor, independent of the job
	// timeout
	Timeout time.Duration
}

// Validate checks the required fields
func (c *RESTExtractorConfig) Validate() error {
	if !c.ObjectType.IsValid() {
		return fmt.Errorf("rest extractor: object type is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("rest extractor: base URL is required")
	}
	if c.ListPath == "" {
		return fmt.Errorf("rest extractor: list path is required")
	}
	if c.IDField == "" {
		return fmt.Errorf("rest extractor: id field is required")
	}
	if c.SinceParam == "" {
		return fmt.Errorf("rest extractor: since param is required")
	}
	return nil
}

// RESTExtractor implements the extractor port against a paged JSON REST
// API. Records are decoded with UseNumber so numeric precision survives
// until coercion.
type RESTExtractor struct {
	config     RESTExtractorConfig
	httpClient *http.Client

	account integration.Account
	token   string
}

// NewRESTExtractor creates an extractor for one vendor endpoint
func NewRESTExtractor(config RESTExtractorConfig) (*RESTExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.PageSize <= 0 {
		config.PageSize = defaultPageSize
	}
	if config.AuthHeader == "" {
		config.AuthHeader = "Authorization"
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	return &RESTExtractor{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Initialize primes the extractor with the tenant's credentials
func (e *RESTExtractor) Initialize(ctx context.Context, account integration.Account, profile *integration.SyncProfile) error {
	token, ok := account.Credentials[e.config.CredentialKey]
	if !ok || token == "" {
		return fmt.Errorf("missing credential %q for tenant %s", e.config.CredentialKey, account.TenantID)
	}
	e.account = account
	e.token = token
	return nil
}

// GetObjects returns a lazy page-by-page iterator over the query's records
func (e *RESTExtractor) GetObjects(ctx context.Context, profile *integration.SyncProfile, query integration.ReadQuery) (integration.RecordIterator, error) {
	return &pageIterator{extractor: e, query: query, page: 1}, nil
}

// GetObject fetches a single record by external id
func (e *RESTExtractor) GetObject(ctx context.Context, externalID string) (integration.RawRecord, error) {
	if e.config.ObjectPathFormat == "" {
		return nil, fmt.Errorf("single-object fetch not supported by this endpoint")
	}
	u := e.config.BaseURL + fmt.Sprintf(e.config.ObjectPathFormat, url.PathEscape(externalID))

	body, err := e.get(ctx, u)
	if err != nil {
		return nil, integration.NewExtractError(e.config.ObjectType, externalID, err)
	}

	var record map[string]any
	if err := decodeJSON(body, &record); err != nil {
		return nil, integration.NewExtractError(e.config.ObjectType, externalID, err)
	}
	return record, nil
}

// ObjectID returns the external id carried by a raw record
func (e *RESTExtractor) ObjectID(record integration.RawRecord) (string, error) {
	doc, ok := record.(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected record shape %T", record)
	}
	raw, ok := doc[e.config.IDField]
	if !ok || raw == nil {
		return "", fmt.Errorf("record has no %q field", e.config.IDField)
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// fetchPage pulls one page of results for the query
func (e *RESTExtractor) fetchPage(ctx context.Context, query integration.ReadQuery, page int) ([]map[string]any, error) {
	u, err := url.Parse(e.config.BaseURL + e.config.ListPath)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint url: %w", err)
	}

	q := u.Query()
	q.Set(e.config.SinceParam, query.Since.UTC().Format(time.RFC3339))
	if e.config.PageParam != "" {
		q.Set(e.config.PageParam, strconv.Itoa(page))
	}
	if e.config.PageSizeParam != "" {
		q.Set(e.config.PageSizeParam, strconv.Itoa(e.config.PageSize))
	}
	u.RawQuery = q.Encode()

	body, err := e.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	if e.config.ItemsField == "" {
		var items []map[string]any
		if err := decodeJSON(body, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := decodeJSON(body, &envelope); err != nil {
		return nil, err
	}
	raw, ok := envelope[e.config.ItemsField]
	if !ok {
		return nil, nil
	}
	var items []map[string]any
	if err := decodeJSON(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// get issues one request with the per-request timeout and auth header
func (e *RESTExtractor) get(ctx context.Context, u string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(e.config.AuthHeader, "Bearer "+e.token)
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vendor API returned status %d", resp.StatusCode)
	}
	return body, nil
}

// decodeJSON decodes with UseNumber so large ids and money amounts do not
// lose precision through float64
func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

// ---------------------------------------------------------------------------
// Page iterator
// ---------------------------------------------------------------------------

// pageIterator walks the paged collection lazily, one page in memory at a
// time. Restartable by re-issuing GetObjects.
type pageIterator struct {
	extractor *RESTExtractor
	query     integration.ReadQuery

	page      int
	buffer    []map[string]any
	idx       int
	exhausted bool
}

// Next returns the next record, fetching the following page when the
// buffer runs out
func (it *pageIterator) Next(ctx context.Context) (integration.RawRecord, bool, error) {
	for it.idx >= len(it.buffer) {
		if it.exhausted {
			return nil, false, nil
		}
		items, err := it.extractor.fetchPage(ctx, it.query, it.page)
		if err != nil {
			return nil, false, err
		}
		if len(items) < it.extractor.config.PageSize || it.extractor.config.PageParam == "" {
			it.exhausted = true
		}
		it.page++
		it.buffer = items
		it.idx = 0
		if len(items) == 0 {
			return nil, false, nil
		}
	}

	record := it.buffer[it.idx]
	it.idx++
	return record, true, nil
}

// Ensure RESTExtractor implements Extractor
var _ integration.Extractor = (*RESTExtractor)(nil)
var _ integration.RecordIterator = (*pageIterator)(nil)

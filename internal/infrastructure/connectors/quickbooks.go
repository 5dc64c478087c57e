package connectors

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	appsync "github.com/booksync/backend/internal/application/sync"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/mapping"
	"github.com/booksync/backend/internal/domain/shared/valueobject"
)

// DefaultQuickBooksBaseURL is the production QuickBooks Online API root
const DefaultQuickBooksBaseURL = "https://quickbooks.api.intuit.com"

// qbCredentialKey selects the OAuth access token from the account credentials
const qbCredentialKey = "access_token"

// QuickBooksConfig parametrizes the QuickBooks adapter
type QuickBooksConfig struct {
	// BaseURL overrides the API root, e.g. for the sandbox environment
	BaseURL string
	// RequestTimeout bounds each vendor request
	RequestTimeout time.Duration
}

// RegisterQuickBooks wires the QuickBooks connector sets for all four
// object types into the registry. The extractor follows the vendor's
// change-data-capture shape: records deleted or voided on the platform
// arrive with a "status" marker instead of a full body.
func RegisterQuickBooks(registry *Registry, cfg QuickBooksConfig, loader integration.Loader, logger *zap.Logger) error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultQuickBooksBaseURL
	}

	endpoints := []struct {
		objectType integration.ObjectType
		listPath   string
		objectPath string
		fields     []mapping.Field
		build      appsync.BuildFunc
	}{
		{
			objectType: integration.ObjectTypeCustomer,
			listPath:   "/v3/customers",
			objectPath: "/v3/customers/%s",
			fields:     qbCustomerFields(),
			build:      buildQuickBooksCustomer,
		},
		{
			objectType: integration.ObjectTypeInvoice,
			listPath:   "/v3/invoices",
			objectPath: "/v3/invoices/%s",
			fields:     qbInvoiceFields(),
			build:      buildQuickBooksInvoice,
		},
		{
			objectType: integration.ObjectTypeCreditNote,
			listPath:   "/v3/creditmemos",
			objectPath: "/v3/creditmemos/%s",
			fields:     qbCreditNoteFields(),
			build:      buildQuickBooksCreditNote,
		},
		{
			objectType: integration.ObjectTypePayment,
			listPath:   "/v3/payments",
			objectPath: "/v3/payments/%s",
			fields:     qbPaymentFields(),
			build:      buildQuickBooksPayment,
		},
	}

	for _, ep := range endpoints {
		extractor, err := NewRESTExtractor(RESTExtractorConfig{
			ObjectType:       ep.objectType,
			BaseURL:          cfg.BaseURL,
			ListPath:         ep.listPath,
			ObjectPathFormat: ep.objectPath,
			ItemsField:       "items",
			IDField:          "Id",
			SinceParam:       "modified_since",
			PageParam:        "page",
			PageSizeParam:    "page_size",
			CredentialKey:    qbCredentialKey,
			Timeout:          cfg.RequestTimeout,
		})
		if err != nil {
			return fmt.Errorf("quickbooks %s extractor: %w", ep.objectType, err)
		}

		transformer := appsync.NewMappingTransformer(
			ep.objectType,
			ep.fields,
			nil,
			quickBooksSource,
			ep.build,
			logger,
		)

		err = registry.Register(integration.IntegrationTypeQuickBooks, ep.objectType, integration.ConnectorSet{
			Extractor:   extractor,
			Transformer: transformer,
			Loader:      loader,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func quickBooksSource(raw integration.RawRecord) (mapping.Source, error) {
	return mapping.NewDocumentSource(raw), nil
}

// ---------------------------------------------------------------------------
// Field tables
// ---------------------------------------------------------------------------

func qbCustomerFields() []mapping.Field {
	return []mapping.Field{
		{SourcePath: "Id", DestinationPath: "external_id", Type: mapping.TypeString},
		{SourcePath: "DisplayName", DestinationPath: "name", Type: mapping.TypeString},
		{SourcePath: "CompanyName", DestinationPath: "company", Type: mapping.TypeString, Nulls: mapping.NullIgnore},
		{SourcePath: "PrimaryEmailAddr/Address", DestinationPath: "emails", Type: mapping.TypeEmailList, Nulls: mapping.NullIgnore},
		{SourcePath: "PrimaryPhone/FreeFormNumber", DestinationPath: "phone", Type: mapping.TypeString, Nulls: mapping.NullIgnore},
		{SourcePath: "BillAddr/Line1", DestinationPath: "billing_address/line1", Type: mapping.TypeString, Nulls: mapping.NullIgnore},
		{SourcePath: "BillAddr/City", DestinationPath: "billing_address/city", Type: mapping.TypeString, Nulls: mapping.NullIgnore},
		{SourcePath: "BillAddr/PostalCode", DestinationPath: "billing_address/zip", Type: mapping.TypeString, Nulls: mapping.NullIgnore},
		{SourcePath: "BillAddr/Country", DestinationPath: "billing_address/country", Type: mapping.TypeCountry, Nulls: mapping.NullIgnore},
		{SourcePath: "Active", DestinationPath: "active", Type: mapping.TypeBoolean},
		{SourcePath: "Balance", DestinationPath: "open_balance", Type: mapping.TypeFloat, Nulls: mapping.NullIgnore},
	}
}

func qbInvoiceFields() []mapping.Field {
	return []mapping.Field{
		{SourcePath: "Id", DestinationPath: "external_id", Type: mapping.TypeString},
		{SourcePath: "DocNumber", DestinationPath: "number", Type: mapping.TypeString},
		{SourcePath: "TxnDate", DestinationPath: "issued_at", Type: mapping.TypeDateUnix},
		{SourcePath: "DueDate", DestinationPath: "due_at", Type: mapping.TypeDateUnix, TimeOfDay: 23, Nulls: mapping.NullIgnore},
		{SourcePath: "TotalAmt", DestinationPath: "total", Type: mapping.TypeFloat},
		{SourcePath: "CurrencyRef/value", DestinationPath: "currency", Type: mapping.TypeCurrency, Nulls: mapping.NullIgnore},
		{SourcePath: "Line[]/Description", DestinationPath: "line_descriptions", Type: mapping.TypeArray, Nulls: mapping.NullIgnore},
		{SourcePath: "PrivateNote", DestinationPath: "memo", Type: mapping.TypeString, Nulls: mapping.NullIgnore},
	}
}

func qbCreditNoteFields() []mapping.Field {
	return []mapping.Field{
		{SourcePath: "Id", DestinationPath: "external_id", Type: mapping.TypeString},
		{SourcePath: "DocNumber", DestinationPath: "number", Type: mapping.TypeString},
		{SourcePath: "TxnDate", DestinationPath: "issued_at", Type: mapping.TypeDateUnix},
		{SourcePath: "TotalAmt", DestinationPath: "total", Type: mapping.TypeFloat},
		{SourcePath: "CurrencyRef/value", DestinationPath: "currency", Type: mapping.TypeCurrency, Nulls: mapping.NullIgnore},
	}
}

func qbPaymentFields() []mapping.Field {
	return []mapping.Field{
		{SourcePath: "Id", DestinationPath: "external_id", Type: mapping.TypeString},
		{SourcePath: "PaymentRefNum", DestinationPath: "reference", Type: mapping.TypeString, Nulls: mapping.NullIgnore},
		{SourcePath: "TxnDate", DestinationPath: "paid_at", Type: mapping.TypeDateUnix},
		{SourcePath: "TotalAmt", DestinationPath: "total", Type: mapping.TypeFloat},
		{SourcePath: "CurrencyRef/value", DestinationPath: "currency", Type: mapping.TypeCurrency, Nulls: mapping.NullIgnore},
	}
}

// ---------------------------------------------------------------------------
// Build hooks
// ---------------------------------------------------------------------------

func buildQuickBooksCustomer(profile *integration.SyncProfile, fields map[string]any, raw integration.RawRecord) (integration.Record, error) {
	doc := rawDocument(raw)
	return &integration.Customer{
		IntegrationID: profile.ID,
		ExternalID:    stringField(fields, "external_id"),
		Values:        fields,
		Deleted:       qbStatus(doc) == "Deleted",
	}, nil
}

func buildQuickBooksInvoice(profile *integration.SyncProfile, fields map[string]any, raw integration.RawRecord) (integration.Record, error) {
	doc := rawDocument(raw)

	invoice := &integration.Invoice{
		IntegrationID:      profile.ID,
		ExternalID:         stringField(fields, "external_id"),
		CustomerExternalID: refValue(doc, "CustomerRef"),
		Values:             fields,
		Voided:             qbStatus(doc) == "Voided",
		Deleted:            qbStatus(doc) == "Deleted",
	}

	if balance, ok, err := docMoney(doc, "Balance"); err != nil {
		return nil, fmt.Errorf("quickbooks invoice %s: %w", invoice.ExternalID, err)
	} else if ok {
		invoice.Balance = &balance
	}

	return invoice, nil
}

func buildQuickBooksCreditNote(profile *integration.SyncProfile, fields map[string]any, raw integration.RawRecord) (integration.Record, error) {
	doc := rawDocument(raw)
	return &integration.CreditNote{
		IntegrationID:      profile.ID,
		ExternalID:         stringField(fields, "external_id"),
		CustomerExternalID: refValue(doc, "CustomerRef"),
		Values:             fields,
		Voided:             qbStatus(doc) == "Voided",
		Deleted:            qbStatus(doc) == "Deleted",
	}, nil
}

// buildQuickBooksPayment lifts the settlement lines out of the raw body
// and runs split allocation over them. Line order is preserved from the
// platform response.
func buildQuickBooksPayment(profile *integration.SyncProfile, fields map[string]any, raw integration.RawRecord) (integration.Record, error) {
	doc := rawDocument(raw)

	payment := &integration.Payment{
		IntegrationID:      profile.ID,
		ExternalID:         stringField(fields, "external_id"),
		CustomerExternalID: refValue(doc, "CustomerRef"),
		Values:             fields,
		Deleted:            qbStatus(doc) == "Deleted",
	}
	if payment.Deleted {
		return payment, nil
	}

	items, err := qbPaymentItems(doc)
	if err != nil {
		return nil, fmt.Errorf("quickbooks payment %s: %w", payment.ExternalID, err)
	}
	payment.Items = items

	splits, err := appsync.AllocateSplits(items)
	if err != nil {
		return nil, fmt.Errorf("quickbooks payment %s: %w", payment.ExternalID, err)
	}
	payment.AppliedTo = splits

	return payment, nil
}

// qbPaymentItems reads the payment's Line array. Each line links exactly
// one transaction; lines linking anything other than an invoice or credit
// memo (deposits, journal entries) are skipped.
func qbPaymentItems(doc map[string]any) ([]integration.PaymentItem, error) {
	currency := docCurrency(doc)

	lines, _ := doc["Line"].([]any)
	items := make([]integration.PaymentItem, 0, len(lines))
	for _, entry := range lines {
		line, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		linked, _ := line["LinkedTxn"].([]any)
		if len(linked) == 0 {
			continue
		}
		txn, ok := linked[0].(map[string]any)
		if !ok {
			continue
		}

		var kind integration.PaymentItemKind
		switch stringField(txn, "TxnType") {
		case "Invoice":
			kind = integration.PaymentItemKindInvoice
		case "CreditMemo":
			kind = integration.PaymentItemKindCredit
		default:
			continue
		}

		amount, ok, err := fieldMoney(line["Amount"], currency)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		items = append(items, integration.PaymentItem{
			Kind:               kind,
			DocumentExternalID: stringField(txn, "TxnId"),
			Amount:             amount,
		})
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Raw document helpers
// ---------------------------------------------------------------------------

func rawDocument(raw integration.RawRecord) map[string]any {
	doc, _ := raw.(map[string]any)
	return doc
}

// qbStatus returns the change-data-capture status marker, empty for a
// regular record body
func qbStatus(doc map[string]any) string {
	return stringField(doc, "status")
}

func stringField(doc map[string]any, key string) string {
	if doc == nil {
		return ""
	}
	switch v := doc[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// refValue reads the "value" of a QuickBooks entity reference
func refValue(doc map[string]any, key string) string {
	if doc == nil {
		return ""
	}
	ref, _ := doc[key].(map[string]any)
	return stringField(ref, "value")
}

func docCurrency(doc map[string]any) valueobject.Currency {
	if code := refValue(doc, "CurrencyRef"); code != "" {
		return valueobject.Currency(code)
	}
	return valueobject.DefaultCurrency
}

func docMoney(doc map[string]any, key string) (valueobject.Money, bool, error) {
	if doc == nil {
		return valueobject.Money{}, false, nil
	}
	return fieldMoney(doc[key], docCurrency(doc))
}

func fieldMoney(v any, currency valueobject.Currency) (valueobject.Money, bool, error) {
	var text string
	switch val := v.(type) {
	case nil:
		return valueobject.Money{}, false, nil
	case json.Number:
		text = val.String()
	case string:
		text = val
	default:
		return valueobject.Money{}, false, fmt.Errorf("unexpected amount shape %T", v)
	}

	money, err := valueobject.NewMoneyFromString(text, currency)
	if err != nil {
		return valueobject.Money{}, false, err
	}
	return money, true, nil
}

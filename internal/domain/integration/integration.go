package integration

// ---------------------------------------------------------------------------
// IntegrationType represents the external accounting platform
// ---------------------------------------------------------------------------

// IntegrationType represents the type of external accounting platform
type IntegrationType string

const (
	// IntegrationTypeIntacct represents Sage Intacct
	IntegrationTypeIntacct IntegrationType = "INTACCT"
	// IntegrationTypeQuickBooks represents QuickBooks Online
	IntegrationTypeQuickBooks IntegrationType = "QUICKBOOKS"
	// IntegrationTypeNetSuite represents Oracle NetSuite
	IntegrationTypeNetSuite IntegrationType = "NETSUITE"
	// IntegrationTypeXero represents Xero
	IntegrationTypeXero IntegrationType = "XERO"
	// IntegrationTypeSageAccounting represents Sage Accounting
	IntegrationTypeSageAccounting IntegrationType = "SAGE_ACCOUNTING"
	// IntegrationTypeBusinessCentral represents Microsoft Dynamics 365 Business Central
	IntegrationTypeBusinessCentral IntegrationType = "BUSINESS_CENTRAL"
	// IntegrationTypeFreshBooks represents FreshBooks
	IntegrationTypeFreshBooks IntegrationType = "FRESHBOOKS"
)

// IsValid returns true if the integration type is valid
func (t IntegrationType) IsValid() bool {
	switch t {
	case IntegrationTypeIntacct, IntegrationTypeQuickBooks, IntegrationTypeNetSuite,
		IntegrationTypeXero, IntegrationTypeSageAccounting, IntegrationTypeBusinessCentral,
		IntegrationTypeFreshBooks:
		return true
	default:
		return false
	}
}

// String returns the string representation of IntegrationType
func (t IntegrationType) String() string {
	return string(t)
}

// DisplayName returns a human-readable name for the platform
func (t IntegrationType) DisplayName() string {
	switch t {
	case IntegrationTypeIntacct:
		return "Sage Intacct"
	case IntegrationTypeQuickBooks:
		return "QuickBooks Online"
	case IntegrationTypeNetSuite:
		return "NetSuite"
	case IntegrationTypeXero:
		return "Xero"
	case IntegrationTypeSageAccounting:
		return "Sage Accounting"
	case IntegrationTypeBusinessCentral:
		return "Business Central"
	case IntegrationTypeFreshBooks:
		return "FreshBooks"
	default:
		return string(t)
	}
}

// ---------------------------------------------------------------------------
// ObjectType represents the kind of financial object being synced
// ---------------------------------------------------------------------------

// ObjectType represents the kind of financial object being synced
type ObjectType string

const (
	// ObjectTypeCustomer represents a customer / account holder
	ObjectTypeCustomer ObjectType = "CUSTOMER"
	// ObjectTypeInvoice represents an invoice
	ObjectTypeInvoice ObjectType = "INVOICE"
	// ObjectTypeCreditNote represents a credit note / credit memo
	ObjectTypeCreditNote ObjectType = "CREDIT_NOTE"
	// ObjectTypePayment represents a payment
	ObjectTypePayment ObjectType = "PAYMENT"
)

// IsValid returns true if the object type is valid
func (t ObjectType) IsValid() bool {
	switch t {
	case ObjectTypeCustomer, ObjectTypeInvoice, ObjectTypeCreditNote, ObjectTypePayment:
		return true
	default:
		return false
	}
}

// String returns the string representation of ObjectType
func (t ObjectType) String() string {
	return string(t)
}

// ReaderOrder returns the object types in the fixed order readers must run.
// Customers come first because documents resolve their customer reference
// through the external mapping table, which must already contain the entry.
func ReaderOrder() []ObjectType {
	return []ObjectType{
		ObjectTypeCustomer,
		ObjectTypeInvoice,
		ObjectTypeCreditNote,
		ObjectTypePayment,
	}
}

// ---------------------------------------------------------------------------
// CustomerImportMode controls which external customers are imported
// ---------------------------------------------------------------------------

// CustomerImportMode controls which external customers are imported
type CustomerImportMode string

const (
	// CustomerImportModeAll imports every customer from the platform
	CustomerImportModeAll CustomerImportMode = "ALL"
	// CustomerImportModeWithInvoices imports only customers that have invoices
	CustomerImportModeWithInvoices CustomerImportMode = "WITH_INVOICES"
	// CustomerImportModeNone disables customer import
	CustomerImportModeNone CustomerImportMode = "NONE"
)

// IsValid returns true if the mode is valid
func (m CustomerImportMode) IsValid() bool {
	switch m {
	case CustomerImportModeAll, CustomerImportModeWithInvoices, CustomerImportModeNone:
		return true
	default:
		return false
	}
}

// String returns the string representation of CustomerImportMode
func (m CustomerImportMode) String() string {
	return string(m)
}

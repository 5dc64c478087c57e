package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/booksync/backend/internal/domain/integration"
)

// IntegrationAccountModel stores the vendor credentials a tenant's sync
// runs under. Credentials are an opaque key/value bag; which keys a vendor
// needs is the adapter's business.
type IntegrationAccountModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_integration_accounts_tenant_integration,priority:1"`
	IntegrationType string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_integration_accounts_tenant_integration,priority:2"`
	Name            string    `gorm:"type:varchar(255);not null"`
	Credentials     string    `gorm:"type:jsonb;column:credentials"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IntegrationAccountModel) TableName() string {
	return "integration_accounts"
}

// ToAccount converts the persistence model to the account handed to
// extractors and transformers
func (m *IntegrationAccountModel) ToAccount() integration.Account {
	account := integration.Account{
		TenantID:    m.TenantID,
		Name:        m.Name,
		Credentials: map[string]string{},
	}
	if m.Credentials != "" {
		var creds map[string]string
		if err := json.Unmarshal([]byte(m.Credentials), &creds); err == nil {
			account.Credentials = creds
		}
	}
	return account
}

// SetCredentials serializes the credential bag
func (m *IntegrationAccountModel) SetCredentials(creds map[string]string) {
	if len(creds) == 0 {
		m.Credentials = ""
		return
	}
	if data, err := json.Marshal(creds); err == nil {
		m.Credentials = string(data)
	}
}

package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock
}

type profileRow struct {
	ID       uint
	TenantID string
	Name     string
}

func (profileRow) TableName() string { return "sync_profiles" }

func TestWithTenantScopesEveryQuery(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectQuery(`SELECT \* FROM "sync_profiles" WHERE tenant_id = \$1`).
		WithArgs("tenant-accounting").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).
			AddRow(1, "tenant-accounting", "quickbooks-main"))

	var rows []profileRow
	require.NoError(t, db.WithTenant("tenant-accounting").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "quickbooks-main", rows[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTenantParameterizesTheValue(t *testing.T) {
	db, mock := newMockDatabase(t)

	// Hostile input rides in as a bind parameter, never as SQL text
	hostile := "tenant'; DROP TABLE sync_profiles; --"
	mock.ExpectQuery(`SELECT \* FROM "sync_profiles" WHERE tenant_id = \$1`).
		WithArgs(hostile).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	var rows []profileRow
	require.NoError(t, db.WithTenant(hostile).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTenantEmptyIDPanics(t *testing.T) {
	db, _ := newMockDatabase(t)

	assert.Panics(t, func() { db.WithTenant("") })
}

func TestWithTenantLeavesRootSessionUnscoped(t *testing.T) {
	db, _ := newMockDatabase(t)

	scoped := db.WithTenant("tenant-a")
	assert.NotEqual(t, db.DB, scoped)

	other := db.WithTenant("tenant-b")
	assert.NotEqual(t, scoped, other)
}

func TestWithTenantComposesWithOtherClauses(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectQuery(`SELECT \* FROM "sync_profiles" WHERE tenant_id = \$1 AND name = \$2 LIMIT \$3`).
		WithArgs("tenant-a", "quickbooks-main", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	var rows []profileRow
	err := db.WithTenant("tenant-a").
		Where("name = ?", "quickbooks-main").
		Limit(5).
		Find(&rows).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "sync_profiles"`).
		WithArgs("tenant-a", "xero-main").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&profileRow{TenantID: "tenant-a", Name: "xero-main"}).Error
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.Transaction(func(tx *gorm.DB) error {
		return assert.AnError
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm.Open pings once on its own
	mock.ExpectPing()
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	db := &Database{DB: gormDB}
	mock.ExpectPing()
	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	db, _ := newMockDatabase(t)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

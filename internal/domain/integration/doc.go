// Package integration contains the Integration bounded context.
// This context owns the reconciliation of financial objects between
// tenant billing data and external accounting platforms.
//
// Key concepts:
//   - SyncProfile: Aggregate holding per-tenant connection state and read cursors
//   - ExternalMapping: Entity binding an external record id to an internal id
//   - Record: Canonical representation of a customer, invoice, credit note or payment
//   - ReconciliationError: Current-state ledger row for a failed record or query
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration

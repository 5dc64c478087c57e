package integration

import (
	"time"
)

// ReadQuery drives one sync invocation. Constructed once by the
// orchestrator and passed unchanged to every reader: Since selects the
// incremental window, StartDate bounds historical backfills, ObjectID
// narrows extraction to a single external record.
type ReadQuery struct {
	// Since is the point records must have changed after (the read cursor)
	Since time.Time
	// StartDate is an explicit lower bound for historical syncs, nil otherwise
	StartDate *time.Time
	// ObjectID narrows extraction to one external record, empty otherwise
	ObjectID string
}

// NewOngoingQuery builds the query for an incremental sync from the cursor
func NewOngoingQuery(since time.Time, invoiceStartDate *time.Time) ReadQuery {
	return ReadQuery{Since: since, StartDate: invoiceStartDate}
}

// NewHistoricalQuery builds the query for an explicitly bounded backfill
func NewHistoricalQuery(start, since time.Time) ReadQuery {
	s := start
	return ReadQuery{Since: since, StartDate: &s}
}

// NewObjectQuery builds the query for a single-object resync
func NewObjectQuery(externalID string) ReadQuery {
	return ReadQuery{ObjectID: externalID}
}

// IsSingleObject reports whether the query targets one external record
func (q ReadQuery) IsSingleObject() bool {
	return q.ObjectID != ""
}

// ABOUTME: Store interface and persisted row types for regina-gateway
// ABOUTME: Covers the rate dataset snapshot, the outcome log and the sequence ledger

package store

import (
	"context"
	"errors"
	"time"

	"github.com/caribefreight/regina-gateway/internal/rates"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Outcome kinds. Both kinds consume one request id.
const (
	OutcomeComplete = "CompleteRequest"
	OutcomePending  = "PendingRequest"
)

// Outcome is one row of the append-only outcome log: a completed request
// with its selected offer, or a pending request with the draft fields.
// ID is a generated row identifier; the store fills it on append when empty.
type Outcome struct {
	ID            string
	RequestID     string
	Correspondent string
	Kind          string // OutcomeComplete or OutcomePending
	RecordedAt    time.Time

	POL           string
	POD           string
	Cost          string
	FreeDaysPOL   string
	FreeDaysPOD   string
	ShippingLine  string
	Validity      string
	ContainerType string
	EmptyPickup   string
	Commodity     string
}

// SequenceEntry is one row of the sequence ledger, used purely to derive the
// next request id.
type SequenceEntry struct {
	RequestID  string
	Kind       string
	RecordedAt time.Time
}

// RateSource is the read side of the rate dataset: a full snapshot read,
// no incremental contract.
type RateSource interface {
	ReadRates(ctx context.Context) ([]rates.Record, error)
}

// Ledger is the append-only log collaborating with the conversation engine
// and the request-id allocator.
type Ledger interface {
	AppendOutcome(ctx context.Context, o *Outcome) error
	AppendSequenceToken(ctx context.Context, e *SequenceEntry) error
	ReadSequenceTokens(ctx context.Context) ([]string, error)
}

// Store is the full persistence interface.
type Store interface {
	RateSource
	Ledger

	// ReplaceRates swaps the dataset snapshot wholesale (import path).
	ReplaceRates(ctx context.Context, records []rates.Record) error

	// ListOutcomes returns the most recent outcome rows, newest first.
	ListOutcomes(ctx context.Context, limit int) ([]*Outcome, error)

	// Close releases any resources held by the store.
	Close() error
}

// ABOUTME: In-memory mock implementation of the Store interface for tests
// ABOUTME: Supports error injection per operation to exercise failure paths

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/caribefreight/regina-gateway/internal/rates"
)

// MockStore is a thread-safe in-memory Store for tests. Error fields, when
// set, are returned by the corresponding operation.
type MockStore struct {
	mu sync.Mutex

	Rates    []rates.Record
	Outcomes []*Outcome
	Sequence []*SequenceEntry

	ReadRatesErr     error
	AppendOutcomeErr error
	AppendTokenErr   error
	ReadTokensErr    error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) ReadRates(ctx context.Context) ([]rates.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadRatesErr != nil {
		return nil, m.ReadRatesErr
	}
	out := make([]rates.Record, len(m.Rates))
	copy(out, m.Rates)
	return out, nil
}

func (m *MockStore) ReplaceRates(ctx context.Context, records []rates.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rates = make([]rates.Record, len(records))
	copy(m.Rates, records)
	return nil
}

func (m *MockStore) AppendOutcome(ctx context.Context, o *Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendOutcomeErr != nil {
		return m.AppendOutcomeErr
	}
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	cp := *o
	m.Outcomes = append(m.Outcomes, &cp)
	return nil
}

func (m *MockStore) ListOutcomes(ctx context.Context, limit int) ([]*Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Outcome, len(m.Outcomes))
	copy(out, m.Outcomes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStore) AppendSequenceToken(ctx context.Context, e *SequenceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendTokenErr != nil {
		return m.AppendTokenErr
	}
	cp := *e
	m.Sequence = append(m.Sequence, &cp)
	return nil
}

func (m *MockStore) ReadSequenceTokens(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadTokensErr != nil {
		return nil, m.ReadTokensErr
	}
	out := make([]string, 0, len(m.Sequence))
	for _, e := range m.Sequence {
		out = append(out, e.RequestID)
	}
	return out, nil
}

func (m *MockStore) Close() error { return nil }

// LastOutcome returns the most recently appended outcome, or nil.
func (m *MockStore) LastOutcome() *Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Outcomes) == 0 {
		return nil
	}
	return m.Outcomes[len(m.Outcomes)-1]
}

// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Verifies rate snapshot round-trips, outcome logging and sequence ledger reads

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caribefreight/regina-gateway/internal/rates"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord() rates.Record {
	return rates.Record{
		POL:           "BAQ",
		POD:           "NINGBO (BEILUN)",
		Cost:          "$2450",
		FreeDaysPOL:   "7",
		FreeDaysPOD:   "14",
		ShippingLine:  "HAPAG",
		Validity:      "31/12/2026",
		ContainerType: "40' DRY HC",
		EmptyPickup:   "TODOS",
	}
}

func TestSQLiteStore_RatesRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	got, err := s.ReadRates(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	rec := sampleRecord()
	require.NoError(t, s.ReplaceRates(ctx, []rates.Record{rec}))

	got, err = s.ReadRates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestSQLiteStore_ReplaceRatesSwapsSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceRates(ctx, []rates.Record{sampleRecord(), sampleRecord()}))

	replacement := sampleRecord()
	replacement.POD = "ROTTERDAM"
	require.NoError(t, s.ReplaceRates(ctx, []rates.Record{replacement}))

	got, err := s.ReadRates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ROTTERDAM", got[0].POD)
}

func TestSQLiteStore_AppendAndListOutcomes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := &Outcome{
		RequestID:     "Q0001",
		Correspondent: "573001112233",
		Kind:          OutcomePending,
		RecordedAt:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		POL:           "BAQ",
		POD:           "SANTOS",
		ContainerType: "20' DRY",
		Commodity:     "SCRAP METAL",
		EmptyPickup:   "TODOS",
	}
	second := &Outcome{
		RequestID:     "Q0002",
		Correspondent: "573001112233",
		Kind:          OutcomeComplete,
		RecordedAt:    time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		POL:           "BAQ",
		POD:           "NINGBO (BEILUN)",
		Cost:          "$2450",
		ShippingLine:  "HAPAG",
	}
	require.NoError(t, s.AppendOutcome(ctx, first))
	require.NoError(t, s.AppendOutcome(ctx, second))
	assert.NotEmpty(t, first.ID, "append assigns a row id")
	assert.NotEqual(t, first.ID, second.ID)

	got, err := s.ListOutcomes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Q0002", got[0].RequestID, "newest first")
	assert.Equal(t, OutcomeComplete, got[0].Kind)
	assert.Equal(t, "Q0001", got[1].RequestID)
	assert.Equal(t, "SCRAP METAL", got[1].Commodity)
}

func TestSQLiteStore_RejectsUnknownOutcomeKind(t *testing.T) {
	s := createTestStore(t)
	err := s.AppendOutcome(context.Background(), &Outcome{
		RequestID:     "Q0001",
		Correspondent: "x",
		Kind:          "SomethingElse",
		RecordedAt:    time.Now(),
	})
	assert.Error(t, err)
}

func TestSQLiteStore_SequenceLedger(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tokens, err := s.ReadSequenceTokens(ctx)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"Q0001", "Q0002", "Q0003"} {
		require.NoError(t, s.AppendSequenceToken(ctx, &SequenceEntry{
			RequestID:  id,
			Kind:       OutcomePending,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	tokens, err = s.ReadSequenceTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q0001", "Q0002", "Q0003"}, tokens)
}

func TestSQLiteStore_DuplicateSequenceTokenRejected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	entry := &SequenceEntry{RequestID: "Q0001", Kind: OutcomePending, RecordedAt: time.Now()}
	require.NoError(t, s.AppendSequenceToken(ctx, entry))
	assert.Error(t, s.AppendSequenceToken(ctx, entry), "request ids are never reused")
}

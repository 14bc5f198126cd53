// ABOUTME: Tests for the rate matching engine
// ABOUTME: Covers the origin allow-list gate, substring matching, wildcard pickup and validity window

package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewEngineAt(func() time.Time { return testNow })
}

func futureValidity() string { return "31/12/2026" }

func baseRecord() Record {
	return Record{
		POL:           "BAQ",
		POD:           "NINGBO (BEILUN)",
		Cost:          "$2450",
		FreeDaysPOL:   "7",
		FreeDaysPOD:   "14",
		ShippingLine:  "HAPAG",
		Validity:      futureValidity(),
		ContainerType: "40' DRY HC",
		EmptyPickup:   "TODOS",
	}
}

func TestFilter_MatchesTerminalQualifiedRecord(t *testing.T) {
	// A bare-port query must match a record carrying a terminal qualifier.
	q := NewQuery("baq", "ningbo", "40hc", "")
	got := testEngine().Filter([]Record{baseRecord()}, q)
	require.Len(t, got, 1)
	assert.Equal(t, "NINGBO (BEILUN)", got[0].POD)
}

func TestFilter_DisallowedOriginReturnsEmpty(t *testing.T) {
	rec := baseRecord()
	rec.POL = "MIA"
	q := NewQuery("mia", "ningbo", "40hc", "")
	assert.Empty(t, testEngine().Filter([]Record{rec, baseRecord()}, q))
}

func TestFilter_AllowListIsCaseInsensitive(t *testing.T) {
	q := NewQuery("BAQ", "ningbo", "40' dry hc", "")
	assert.Len(t, testEngine().Filter([]Record{baseRecord()}, q), 1)
}

func TestFilter_WildcardPickupSatisfiesAnyQuery(t *testing.T) {
	rec := baseRecord() // pickup TODOS
	for _, pickup := range []string{"", "ctg", "med", "todos"} {
		q := NewQuery("baq", "ningbo", "40", pickup)
		assert.Len(t, testEngine().Filter([]Record{rec}, q), 1, "pickup %q", pickup)
	}
}

func TestFilter_SpecificPickupMustContainQuery(t *testing.T) {
	rec := baseRecord()
	rec.EmptyPickup = "CTG"

	match := NewQuery("baq", "ningbo", "40", "ctg")
	assert.Len(t, testEngine().Filter([]Record{rec}, match), 1)

	miss := NewQuery("baq", "ningbo", "40", "med")
	assert.Empty(t, testEngine().Filter([]Record{rec}, miss))
}

func TestFilter_EmptyPickupFieldExcludesRecord(t *testing.T) {
	rec := baseRecord()
	rec.EmptyPickup = ""
	q := NewQuery("baq", "ningbo", "40", "")
	assert.Empty(t, testEngine().Filter([]Record{rec}, q))
}

func TestFilter_PastValidityExcluded(t *testing.T) {
	rec := baseRecord()
	rec.Validity = "1/3/2026" // before testNow
	q := NewQuery("baq", "ningbo", "40", "")
	assert.Empty(t, testEngine().Filter([]Record{rec}, q))
}

func TestFilter_ValidityTodayIncluded(t *testing.T) {
	rec := baseRecord()
	rec.Validity = "10/3/2026"
	q := NewQuery("baq", "ningbo", "40", "")
	assert.Len(t, testEngine().Filter([]Record{rec}, q), 1)
}

func TestFilter_ValidityTodayIncludedUnderNegativeOffsetClock(t *testing.T) {
	// Late evening in Bogota is already the next day in UTC; the boundary
	// must follow the clock's calendar day, not UTC's.
	bogota := time.FixedZone("America/Bogota", -5*60*60)
	e := NewEngineAt(func() time.Time {
		return time.Date(2026, time.March, 10, 20, 0, 0, 0, bogota)
	})
	rec := baseRecord()
	rec.Validity = "10/3/2026"
	q := NewQuery("baq", "ningbo", "40", "")
	assert.Len(t, e.Filter([]Record{rec}, q), 1)
}

func TestFilter_ExpiredValidityStaysExcludedUnderPositiveOffsetClock(t *testing.T) {
	// Early morning east of UTC is still the previous day in UTC; a rate
	// that expired yesterday must not leak back in.
	tokyo := time.FixedZone("Asia/Tokyo", 9*60*60)
	e := NewEngineAt(func() time.Time {
		return time.Date(2026, time.March, 10, 2, 0, 0, 0, tokyo)
	})
	rec := baseRecord()
	rec.Validity = "9/3/2026"
	q := NewQuery("baq", "ningbo", "40", "")
	assert.Empty(t, e.Filter([]Record{rec}, q))
}

func TestFilter_UnparsableValidityExcluded(t *testing.T) {
	rec := baseRecord()
	rec.Validity = "pending"
	q := NewQuery("baq", "ningbo", "40", "")
	assert.Empty(t, testEngine().Filter([]Record{rec}, q))
}

func TestFilter_ValidityFormats(t *testing.T) {
	q := NewQuery("baq", "ningbo", "40", "")
	for _, v := range []string{"31/12/2026", "1/4/2026", "01-04-2026"} {
		rec := baseRecord()
		rec.Validity = v
		assert.Len(t, testEngine().Filter([]Record{rec}, q), 1, "validity %q", v)
	}
}

func TestFilter_ContainerMustMatch(t *testing.T) {
	rec := baseRecord() // 40' DRY HC
	q := NewQuery("baq", "ningbo", "20' dry", "")
	assert.Empty(t, testEngine().Filter([]Record{rec}, q))
}

func TestFilter_SubstringDirectionIsRecordContainsQuery(t *testing.T) {
	// The query may be a prefix of the record value, never the reverse.
	rec := baseRecord()
	rec.POD = "NINGBO"
	q := NewQuery("baq", "ningbo (beilun)", "40", "")
	assert.Empty(t, testEngine().Filter([]Record{rec}, q))
}

func TestFilter_MultipleCandidates(t *testing.T) {
	cheap := baseRecord()
	cheap.Cost = "$2100"
	cheap.ShippingLine = "ONE"
	other := baseRecord()
	other.POD = "ROTTERDAM"

	q := NewQuery("baq", "ningbo", "40", "")
	got := testEngine().Filter([]Record{cheap, other, baseRecord()}, q)
	assert.Len(t, got, 2)
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, OriginAllowed("baq"))
	assert.True(t, OriginAllowed("CTG"))
	assert.True(t, OriginAllowed(" bun "))
	assert.False(t, OriginAllowed("mia"))
	assert.False(t, OriginAllowed(""))
}

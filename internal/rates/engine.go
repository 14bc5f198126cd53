// ABOUTME: MatchingEngine filters the rate dataset against a normalized query
// ABOUTME: Origin allow-list gate, substring field matching, wildcard pickup and validity window

package rates

import (
	"strings"
	"time"

	"github.com/caribefreight/regina-gateway/internal/normalize"
)

// allowedOrigins is the fixed set of serviceable origin ports. Queries for
// any other origin never produce candidates.
var allowedOrigins = map[string]bool{
	"baq": true,
	"ctg": true,
	"bun": true,
}

// Engine filters rate records. The zero value is not usable; construct with
// NewEngine so the clock is injectable for tests.
type Engine struct {
	now func() time.Time
}

// NewEngine returns a matching engine using the process clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt returns a matching engine with a fixed clock.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// OriginAllowed reports whether the query origin is in the serviceable
// allow-list, case-insensitive.
func OriginAllowed(pol string) bool {
	return allowedOrigins[fold(pol)]
}

// Filter returns the records matching the query. All conditions are
// conjunctive:
//
//   - the query origin must be allow-listed, otherwise the result is empty
//   - record POL, POD and container type must each contain the corresponding
//     query value as a lower-cased substring
//   - the record's empty-pickup must contain the query value or equal the
//     wildcard marker
//   - the record's validity date must parse and be today or later
//
// Matching is deliberately record-contains-query, not equality, so terminal
// qualifiers appended in the sheet ("NINGBO (BEILUN)") still match the bare
// port. Short query codes can therefore over-match; this is a known,
// intentional trade-off.
func (e *Engine) Filter(records []Record, q Query) []Record {
	if !allowedOrigins[q.POL] {
		return nil
	}

	// Build "today" from the clock's local date components so the boundary
	// tracks the process clock's calendar day; Truncate would align to UTC
	// and flip the day early or late under non-UTC clocks.
	y, m, d := e.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	wildcard := fold(normalize.WildcardPickup)

	var out []Record
	for _, r := range records {
		if !contains(r.POL, q.POL) || !contains(r.POD, q.POD) || !contains(r.ContainerType, q.ContainerType) {
			continue
		}
		pickup := fold(r.EmptyPickup)
		if pickup == "" {
			continue
		}
		if pickup != wildcard && !strings.Contains(pickup, q.EmptyPickup) {
			continue
		}
		validity, ok := parseValidity(r.Validity)
		if !ok || validity.Before(today) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func contains(recordValue, queryValue string) bool {
	if recordValue == "" {
		return false
	}
	return strings.Contains(fold(recordValue), queryValue)
}

// ABOUTME: Rate record and query types for the freight rate dataset
// ABOUTME: Records are immutable snapshot rows, queries are lower-cased projections of a draft

package rates

import (
	"strings"
	"time"
)

// Record is one immutable row of the rate dataset snapshot.
type Record struct {
	POL           string // port of loading (origin)
	POD           string // port of discharge (destination)
	Cost          string // total freight and origin charges, kept as sheet text
	FreeDaysPOL   string
	FreeDaysPOD   string
	ShippingLine  string
	Validity      string // day/month/year expiry of the rate
	ContainerType string
	EmptyPickup   string
}

// Query is the normalized, lower-cased projection of a request draft used
// for filtering.
type Query struct {
	POL           string
	POD           string
	ContainerType string
	EmptyPickup   string
}

// UsableOffer reports whether a record returned by the offer-selection
// collaborator carries the minimum fields for a quote reply: origin,
// destination and cost.
func (r Record) UsableOffer() bool {
	return r.POL != "" && r.POD != "" && r.Cost != ""
}

// NewQuery lower-cases and trims each field into a filter query.
func NewQuery(pol, pod, containerType, emptyPickup string) Query {
	return Query{
		POL:           fold(pol),
		POD:           fold(pod),
		ContainerType: fold(containerType),
		EmptyPickup:   fold(emptyPickup),
	}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validityFormats are the date layouts seen in the rate sheet, day first,
// with and without zero padding.
var validityFormats = []string{"2/1/2006", "02/01/2006", "2-1-2006"}

// parseValidity parses a sheet validity date. The boolean is false for
// unparsable values.
func parseValidity(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	for _, layout := range validityFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ABOUTME: Tests for the canonicalization tables
// ABOUTME: Covers synonym collapsing, pass-through behavior and idempotence

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardizePort(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"barranquilla long form", "Barranquilla", "BAQ"},
		{"barranquilla code", "baq", "BAQ"},
		{"cartagena", "cartagena", "CTG"},
		{"buenaventura", "Buenaventura", "BUN"},
		{"busan variant", "Pusan", "BUSAN"},
		{"busan terminal qualifier", "busan new port", "BUSAN"},
		{"ningbo bare stays bare", "Ningbo", "NINGBO"},
		{"ningbo beilun", "ningbo beilun", "NINGBO (BEILUN)"},
		{"ningbo meishan", "Ningbo Meishan", "NINGBO (MEISHAN)"},
		{"kattupalli", "Chennai Kattupalli", "CHENNA (KATTUPALLI)"},
		{"unknown passes through uppercased", "rotterdam", "ROTTERDAM"},
		{"trims whitespace", "  santos  ", "SANTOS"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StandardizePort(tt.input))
		})
	}
}

func TestStandardizePort_Idempotent(t *testing.T) {
	inputs := []string{
		"Barranquilla", "busan new port", "ningbo beilun", "Ningbo",
		"rotterdam", "Chennai Kattupalli", "", "  callao ",
	}
	for _, in := range inputs {
		once := StandardizePort(in)
		assert.Equal(t, once, StandardizePort(once), "input %q", in)
	}
}

func TestStandardizeContainer(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"20ft", "20' DRY"},
		{"20' dry", "20' DRY"},
		{"40hc", "40' DRY HC"},
		{"40' high cube", "40' DRY HC"},
		{"40ft", "40' DRY"},
		{"40' dry", "40' DRY"},
		{"reefer", "REEFER"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StandardizeContainer(tt.input), "input %q", tt.input)
	}
}

func TestStandardizePickupCity(t *testing.T) {
	assert.Equal(t, "CTG", StandardizePickupCity("cartagena"))
	assert.Equal(t, "BAQ", StandardizePickupCity("Barranquilla"))
	assert.Equal(t, "MED", StandardizePickupCity("medellin"))
	assert.Equal(t, "CALI", StandardizePickupCity("Cali"))
	assert.Equal(t, WildcardPickup, StandardizePickupCity(""))
	assert.Equal(t, WildcardPickup, StandardizePickupCity("   "))
	// Unknown cities pass through rather than collapse to the wildcard.
	assert.Equal(t, "BOGOTA", StandardizePickupCity("bogota"))
}

func TestStandardizeCommodity(t *testing.T) {
	assert.Equal(t, "SCRAP METAL", StandardizeCommodity("scrap"))
	assert.Equal(t, "SCRAP METAL", StandardizeCommodity("Scrap metal"))
	assert.Equal(t, "GELATINA", StandardizeCommodity("gelatin"))
	assert.Equal(t, "BEBIDAS", StandardizeCommodity("beverages"))
	assert.Equal(t, "COFFEE", StandardizeCommodity("coffee"))
	assert.Equal(t, "", StandardizeCommodity(""))
}

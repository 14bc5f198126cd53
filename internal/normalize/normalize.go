// ABOUTME: Canonicalization tables for ports, container types, pickup cities and commodities
// ABOUTME: Pure value mapping with no side effects, applied symmetrically to queries and dataset rows

package normalize

import "strings"

// WildcardPickup is the sentinel pickup-city value meaning "applies to any city".
const WildcardPickup = "TODOS"

// synonymGroup maps a canonical value to the aliases that should collapse into it.
// Alias matching is substring-based over the uppercased input so appended
// terminal qualifiers ("BUSAN NEW PORT") still resolve.
type synonymGroup struct {
	canonical string
	aliases   []string
}

// portGroups collapse known spelling variants onto the rate sheet's canonical
// port names. Order matters: more specific groups (terminal-qualified) come
// before their bare-port fallbacks.
var portGroups = []synonymGroup{
	{"NINGBO (BEILUN)", []string{"NINGBO (BEILUN)", "NINGBO BEILUN", "BEILUN"}},
	{"NINGBO (MEISHAN)", []string{"NINGBO (MEISHAN)", "NINGBO MEISHAN", "MEISHAN"}},
	{"CHENNA (KATTUPALLI)", []string{"KATTUPALLI", "CHENNAI KATTUPALLI"}},
	{"BUSAN", []string{"BUSAN", "PUSAN", "BUSAN NEW PORT", "BUSAN (PNIT)", "BUSAN PNC"}},
	{"BAQ", []string{"BARRANQUILLA", "BAQ"}},
	{"CTG", []string{"CARTAGENA", "CTG"}},
	{"BUN", []string{"BUENAVENTURA", "BUN"}},
	{"NANHAI", []string{"NANHAI", "NAN HAI"}},
}

// cityGroups canonicalize empty-pickup cities.
var cityGroups = []synonymGroup{
	{"CTG", []string{"CARTAGENA", "CTG"}},
	{"BAQ", []string{"BARRANQUILLA", "BAQ"}},
	{"MED", []string{"MEDELLIN", "MED"}},
	{"CALI", []string{"CALI"}},
}

// commodityGroups canonicalize commodity names.
var commodityGroups = []synonymGroup{
	{"SCRAP METAL", []string{"SCRAP"}},
	{"GELATINA", []string{"GELATIN"}},
	{"BEBIDAS", []string{"BEBIDA", "BEVERAGE", "DRINKS"}},
}

// StandardizePort uppercases and trims the value, then collapses known
// synonym-group aliases onto their canonical port name. Unknown values pass
// through uppercased and trimmed. Idempotent: canonical names are themselves
// aliases of their group.
func StandardizePort(value string) string {
	return applyGroups(value, portGroups)
}

// StandardizePickupCity canonicalizes an empty-pickup city. Empty or
// unspecified input resolves to the wildcard marker.
func StandardizePickupCity(value string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return WildcardPickup
	}
	return applyGroups(v, cityGroups)
}

// StandardizeCommodity canonicalizes a commodity description.
func StandardizeCommodity(value string) string {
	return applyGroups(value, commodityGroups)
}

// StandardizeContainer maps free-form container descriptions onto the rate
// sheet's three container classes. Anything mentioning 20 feet is "20' DRY";
// 40-foot high cubes are "40' DRY HC"; other 40-foot boxes are "40' DRY".
// Unrecognized input passes through uppercased.
func StandardizeContainer(value string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	switch {
	case strings.Contains(v, "20"):
		return "20' DRY"
	case strings.Contains(v, "40") && (strings.Contains(v, "HC") || strings.Contains(v, "HIGH")):
		return "40' DRY HC"
	case strings.Contains(v, "40"):
		return "40' DRY"
	}
	return v
}

func applyGroups(value string, groups []synonymGroup) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	for _, g := range groups {
		for _, alias := range g.aliases {
			if strings.Contains(v, alias) {
				return g.canonical
			}
		}
	}
	return v
}

package snapshot

import "strings"

// commodityNames maps crop names as the UI sends them to the commodity
// names the upstream API filters on.
var commodityNames = map[string]string{
	"rice":      "Rice",
	"maize":     "Maize",
	"wheat":     "Wheat",
	"cotton":    "Cotton",
	"sugarcane": "Sugarcane",
	"groundnut": "Groundnut",
	"tomato":    "Tomato",
	"potato":    "Potato",
	"onion":     "Onion",
}

// CanonicalCommodity normalizes a commodity name through the canonical
// table. Unknown names pass through trimmed but otherwise untouched, so
// callers can query commodities the table does not know about.
func CanonicalCommodity(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := commodityNames[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

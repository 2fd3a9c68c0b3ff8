package delivery

import "strings"

// cityAliases maps shorthand and lowercase spellings to the city names the
// gateway expects. Unknown cities pass through untouched.
var cityAliases = map[string]string{
	"casa":       "Casablanca",
	"casablanca": "Casablanca",
	"alger":      "Alger",
	"algiers":    "Alger",
	"rabat":      "Rabat",
	"tanger":     "Tanger",
	"tangier":    "Tanger",
	"kech":       "Marrakech",
	"marrakech":  "Marrakech",
	"agadir":     "Agadir",
	"oran":       "Oran",
}

// NormalizeCity resolves shorthand aliases and falls back to the configured
// default when the order has no city at all.
func NormalizeCity(city, fallback string) string {
	trimmed := strings.TrimSpace(city)
	if trimmed == "" {
		return fallback
	}
	if canonical, ok := cityAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

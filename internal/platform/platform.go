// Package platform holds the registry of affiliate platforms the catalog
// compares prices across. Ranking logic never special-cases platform identity
// beyond this table.
package platform

import (
	"sort"
	"strings"
)

// Slug identifies an affiliate platform.
type Slug = string

const (
	AliExpress Slug = "aliexpress"
	Temu       Slug = "temu"
	Shein      Slug = "shein"
)

// Info holds static display metadata for a platform.
type Info struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var registry = map[string]Info{
	AliExpress: {Slug: AliExpress, Name: "AliExpress", Color: "#FF4747", Icon: "cart"},
	Temu:       {Slug: Temu, Name: "Temu", Color: "#FF6000", Icon: "store"},
	Shein:      {Slug: Shein, Name: "Shein", Color: "#000000", Icon: "dress"},
}

// fallback is returned for platforms not in the registry so callers never
// need to handle a missing entry.
var fallback = Info{Slug: "", Name: "Store", Color: "#6B7280", Icon: "shop"}

// ValidPlatforms returns the registered platform slugs in sorted order.
func ValidPlatforms() []string {
	slugs := make([]string, 0, len(registry))
	for slug := range registry {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// IsValid checks if a platform slug is registered.
func IsValid(slug string) bool {
	_, ok := registry[Normalize(slug)]
	return ok
}

// Normalize lowercases and trims a platform slug.
func Normalize(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// InfoFor returns display metadata for a platform, falling back to a generic
// entry for unknown slugs. The fallback keeps the original slug as the name
// so an unregistered platform still renders recognizably.
func InfoFor(slug string) Info {
	normalized := Normalize(slug)
	if info, ok := registry[normalized]; ok {
		return info
	}
	info := fallback
	info.Slug = normalized
	if normalized != "" {
		info.Name = slug
	}
	return info
}

// Register adds a platform to the registry. New platforms become comparable
// without any change to the ranking logic.
func Register(info Info) {
	info.Slug = Normalize(info.Slug)
	if info.Slug == "" {
		return
	}
	registry[info.Slug] = info
}

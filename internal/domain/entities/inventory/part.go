// Package inventory holds the subset of the host's part catalogue the plugin
// needs to resolve BOM part numbers.
package inventory

import "strings"

// Alias kinds recorded against a part.
const (
	AliasSupplierSKU     = "supplier_sku"
	AliasManufacturerMPN = "manufacturer_mpn"
)

// Alias is an alternative part number that identifies a part.
type Alias struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Part is a host inventory part.
type Part struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	IPN     string  `json:"ipn"`
	Active  bool    `json:"active"`
	Aliases []Alias `json:"aliases,omitempty"`
}

// NormalizePartNumber trims and lower-cases a part number for matching.
func NormalizePartNumber(pn string) string {
	return strings.ToLower(strings.TrimSpace(pn))
}

// ValidAliasKind reports whether kind is a known alias kind.
func ValidAliasKind(kind string) bool {
	return kind == AliasSupplierSKU || kind == AliasManufacturerMPN
}

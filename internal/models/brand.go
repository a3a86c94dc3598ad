// internal/models/brand.go
package models

import "strings"

// Brand is the tracked product line. A record belongs to the brand when any
// product name is contained in one of the match fields.
type Brand struct {
	Name        string   `json:"name"`
	Products    []string `json:"products"`
	MatchFields []string `json:"matchFields"`
}

func (b Brand) Matches(r Record) bool {
	for _, field := range b.MatchFields {
		text := r.Text(field)
		if text == "" {
			continue
		}
		for _, p := range b.Products {
			if p != "" && strings.Contains(text, p) {
				return true
			}
		}
	}
	return false
}

// Filter returns the brand's records in their original order.
func (b Brand) Filter(rows []Record) []Record {
	var out []Record
	for _, r := range rows {
		if b.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

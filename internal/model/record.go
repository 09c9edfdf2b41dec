// Package model defines the core data types shared across county-atlas:
// records, parsed field values, and dataset metadata.
package model

import "time"

// Value holds one cell of a dataset field in both representations: the
// original raw text (for tooltips and display) and the coerced numeric value
// (for classification and coloring). Downstream code never re-derives raw
// text from the numeric value.
type Value struct {
	Raw   string  `json:"raw"`
	Num   float64 `json:"num"`
	Valid bool    `json:"valid"`
}

// Float returns the numeric value and whether it is usable.
func (v Value) Float() (float64, bool) {
	return v.Num, v.Valid
}

// Record is one row of input data keyed by region name. Fields are populated
// once by the field parser and never mutated afterward.
type Record struct {
	Key    string           `json:"key"`
	Fields map[string]Value `json:"fields"`
}

// Value returns the parsed value for a field. The zero Value (Valid=false)
// is returned when the field is absent.
func (r *Record) Value(field string) Value {
	if r.Fields == nil {
		return Value{}
	}
	return r.Fields[field]
}

// Dataset describes an imported table.
type Dataset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	KeyColumn string    `json:"key_column"`
	Fields    []string  `json:"fields"`
	CreatedAt time.Time `json:"created_at"`
}

// Package models defines the domain types for chartboard.
package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one row of a dataset. Keys keep the column order of the source
// so the serialized JSON matches the header.
type Record = *orderedmap.OrderedMap[string, any]

// NewRecord returns an empty record with room for n columns.
func NewRecord(n int) Record {
	return orderedmap.New[string, any](n)
}

// Dataset is an ordered sequence of records loaded from a source.
type Dataset struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Count is the number of records sharing one value of a column.
type Count struct {
	Key   any `json:"key"`
	Count int `json:"count"`
}

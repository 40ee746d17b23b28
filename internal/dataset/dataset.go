// Package dataset turns delimited text into typed, ordered records.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/starford/chartboard/internal/apperr"
	"github.com/starford/chartboard/internal/models"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// naValues are the cell spellings treated as missing.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Options controls how delimited text is read.
type Options struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// Comment, if non-zero, marks lines to skip.
	Comment rune
}

// Parse reads a header line followed by data rows from r and returns the
// dataset with per-column type inference applied.
func Parse(r io.Reader, opts Options) (*models.Dataset, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.Comment = opts.Comment

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("dataset: %w: missing header", apperr.ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: %w: %v", apperr.ErrMalformed, err)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: %w: %v", apperr.ErrMalformed, err)
		}
		rows = append(rows, row)
	}

	return FromRows(header, rows), nil
}

// FromRows builds a dataset from a header and string cells. Every row must
// have len(header) cells.
func FromRows(header []string, rows [][]string) *models.Dataset {
	columns := normalizeHeader(header)

	kinds := make([]Kind, len(columns))
	for i := range columns {
		kinds[i] = inferKind(rows, i)
	}

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec := models.NewRecord(len(columns))
		for i, name := range columns {
			rec.Set(name, convert(row[i], kinds[i]))
		}
		records = append(records, rec)
	}

	return &models.Dataset{Columns: columns, Records: records}
}

// normalizeHeader strips a leading byte-order mark, names blank columns
// "Unnamed: i" and suffixes repeated names with ".1", ".2", ...
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for {
			n, dup := seen[name]
			if !dup {
				break
			}
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", h, n+1)
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func isNA(s string) bool {
	_, ok := naValues[strings.TrimSpace(s)]
	return ok
}

// inferKind picks the narrowest kind that every non-missing cell of column
// col parses as. A column with no values at all is a float column.
func inferKind(rows [][]string, col int) Kind {
	isInt, isFloat, isBool := true, true, true
	for _, row := range rows {
		cell := row[col]
		if isNA(cell) {
			continue
		}
		v := strings.TrimSpace(cell)
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, ok := parseFloat(v); !ok {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(v); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return KindString
		}
	}
	switch {
	case isInt:
		return KindInt
	case isFloat:
		return KindFloat
	case isBool:
		return KindBool
	}
	return KindString
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func convert(cell string, kind Kind) any {
	if isNA(cell) {
		return nil
	}
	v := strings.TrimSpace(cell)
	switch kind {
	case KindInt:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case KindFloat:
		f, _ := parseFloat(v)
		return f
	case KindBool:
		b, _ := parseBool(v)
		return b
	}
	return cell
}

package dataset

import (
	"fmt"

	"github.com/starford/chartboard/internal/apperr"
	"github.com/starford/chartboard/internal/models"
)

// Counts returns the number of records per distinct value of column, in the
// order values are first seen.
func Counts(ds *models.Dataset, column string) ([]models.Count, error) {
	if !ds.HasColumn(column) {
		return nil, fmt.Errorf("dataset: %w: %s", apperr.ErrUnknownColumn, column)
	}

	idx := make(map[any]int)
	out := []models.Count{}
	for _, rec := range ds.Records {
		v, _ := rec.Get(column)
		if i, ok := idx[v]; ok {
			out[i].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, models.Count{Key: v, Count: 1})
	}
	return out, nil
}

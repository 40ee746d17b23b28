// Package storage defines where datasets are loaded from.
package storage

import (
	"context"

	"github.com/starford/chartboard/internal/models"
)

// Provider loads a dataset. Implementations read their source afresh on
// every call.
type Provider interface {
	// Load reads the source and returns its current contents.
	Load(ctx context.Context) (*models.Dataset, error)
	// Describe returns a short human-readable name of the source for logs.
	Describe() string
}

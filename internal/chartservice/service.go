// Package chartservice turns a dataset source into the payloads served to
// the chart page, the JSON API and the MCP tools.
package chartservice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starford/chartboard/internal/dataset"
	"github.com/starford/chartboard/internal/models"
	"github.com/starford/chartboard/internal/storage"
)

// ChartData is the serialized record set handed to the template.
type ChartData struct {
	JSON []byte
	// Checksum is the hex SHA-256 of JSON.
	Checksum string
	Rows     int
}

// Service loads datasets from a provider on every call.
type Service struct {
	store storage.Provider
}

// NewService creates a new chart service.
func NewService(store storage.Provider) *Service {
	return &Service{store: store}
}

// Source describes the underlying provider.
func (s *Service) Source() string {
	return s.store.Describe()
}

// Dataset loads the current dataset.
func (s *Service) Dataset(ctx context.Context) (*models.Dataset, error) {
	return s.store.Load(ctx)
}

// ChartJSON loads the dataset and encodes its records as JSON indented with
// two spaces.
func (s *Service) ChartJSON(ctx context.Context) (*ChartData, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	data, err := Encode(ds)
	if err != nil {
		return nil, err
	}
	return &ChartData{
		JSON:     data,
		Checksum: sha256sum(data),
		Rows:     ds.Len(),
	}, nil
}

// Columns returns the column names of the current dataset.
func (s *Service) Columns(ctx context.Context) ([]string, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(ds.Columns), nil
}

// Counts aggregates the current dataset by column.
func (s *Service) Counts(ctx context.Context, column string) ([]models.Count, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.Counts(ds, column)
}

// Encode serializes the records of ds as an indented JSON array. An empty
// dataset encodes as [].
func Encode(ds *models.Dataset) ([]byte, error) {
	data, err := json.MarshalIndent(nonNilSlice(ds.Records), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("chartservice: encode: %w", err)
	}
	return data, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

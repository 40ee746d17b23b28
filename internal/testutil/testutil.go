// Package testutil provides shared test helpers for dataset files and services.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/chartboard/internal/chartservice"
	"github.com/starford/chartboard/internal/storage"
)

// Placements is a small sample of the campus placement dataset.
const Placements = `sl_no,gender,ssc_p,hsc_s,degree_t,workex,specialisation,status,salary
1,M,67.0,Commerce,Sci&Tech,No,Mkt&HR,Placed,270000
2,M,79.33,Science,Sci&Tech,Yes,Mkt&Fin,Placed,200000
3,M,65.0,Arts,Comm&Mgmt,No,Mkt&Fin,Placed,250000
4,M,56.0,Science,Sci&Tech,No,Mkt&HR,Not Placed,
5,M,85.8,Commerce,Comm&Mgmt,No,Mkt&Fin,Placed,425000
`

// TestCSV writes content to a temporary dataset file and returns its path.
func TestCSV(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// TestService creates a chart service reading the CSV file at path.
func TestService(t *testing.T, path string) *chartservice.Service {
	t.Helper()
	store, err := storage.NewFile(path, storage.FileOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return chartservice.NewService(store)
}

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/chartboard/internal/apperr"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestFile_Load(t *testing.T) {
	p := writeFile(t, "dataset.csv", []byte("a,b\n1,x\n2,y\n"))
	f, err := NewFile(p, FileOptions{})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	ds, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 2 {
		t.Errorf("len = %d, want 2", ds.Len())
	}
}

func TestFile_ReflectsCurrentContents(t *testing.T) {
	p := writeFile(t, "dataset.csv", []byte("a\n1\n"))
	f, _ := NewFile(p, FileOptions{})
	if ds, _ := f.Load(context.Background()); ds.Len() != 1 {
		t.Fatalf("precondition: len = %d", ds.Len())
	}
	_ = os.WriteFile(p, []byte("a\n1\n2\n3\n"), 0o644)
	ds, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("len = %d, want 3", ds.Len())
	}
}

func TestFile_Missing(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "nope.csv"), FileOptions{})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	_, err = f.Load(context.Background())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist in chain", err)
	}
}

func TestFile_Malformed(t *testing.T) {
	p := writeFile(t, "bad.csv", []byte("a,b\n1,2,3\n"))
	f, _ := NewFile(p, FileOptions{})
	if _, err := f.Load(context.Background()); !errors.Is(err, apperr.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestFile_Latin1(t *testing.T) {
	// "café" in ISO-8859-1.
	p := writeFile(t, "latin.csv", []byte("name\ncaf\xe9\n"))
	f, err := NewFile(p, FileOptions{Encoding: "latin1"})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	ds, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := ds.Records[0].Get("name"); v != "café" {
		t.Errorf("name = %q", v)
	}
}

func TestFile_UTF8BOM(t *testing.T) {
	p := writeFile(t, "bom.csv", []byte("\xef\xbb\xbfid,v\n1,2\n"))
	f, _ := NewFile(p, FileOptions{})
	ds, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Columns[0] != "id" {
		t.Errorf("first column = %q, want id", ds.Columns[0])
	}
}

func TestNewFile_UnknownEncoding(t *testing.T) {
	if _, err := NewFile("x.csv", FileOptions{Encoding: "klingon"}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestFile_CancelledContext(t *testing.T) {
	p := writeFile(t, "dataset.csv", []byte("a\n1\n"))
	f, _ := NewFile(p, FileOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

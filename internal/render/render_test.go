package render

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/starford/chartboard/web"
)

func TestRender_BindsChartData(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html": {Data: []byte(`<script>var data = {{ .ChartData }};</script>`)},
	}
	r := New(fsys, "index.html", false)

	var buf bytes.Buffer
	if err := r.Render(&buf, Page{ChartData: `[{"a": 1}]`}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := buf.String(); got != `<script>var data = [{"a": 1}];</script>` {
		t.Errorf("output = %q", got)
	}
}

func TestRender_CachedUntilInvalidate(t *testing.T) {
	fsys := fstest.MapFS{"index.html": {Data: []byte("v1")}}
	r := New(fsys, "index.html", false)

	var buf bytes.Buffer
	_ = r.Render(&buf, nil)
	fsys["index.html"] = &fstest.MapFile{Data: []byte("v2")}

	buf.Reset()
	_ = r.Render(&buf, nil)
	if buf.String() != "v1" {
		t.Errorf("cached output = %q, want v1", buf.String())
	}

	r.Invalidate()
	buf.Reset()
	_ = r.Render(&buf, nil)
	if buf.String() != "v2" {
		t.Errorf("after invalidate = %q, want v2", buf.String())
	}
}

func TestRender_AutoReload(t *testing.T) {
	fsys := fstest.MapFS{"index.html": {Data: []byte("v1")}}
	r := New(fsys, "index.html", true)

	var buf bytes.Buffer
	_ = r.Render(&buf, nil)
	fsys["index.html"] = &fstest.MapFile{Data: []byte("v2")}

	buf.Reset()
	_ = r.Render(&buf, nil)
	if buf.String() != "v2" {
		t.Errorf("output = %q, want v2", buf.String())
	}
}

func TestRender_MissingTemplate(t *testing.T) {
	r := New(fstest.MapFS{}, "index.html", false)
	if err := r.Check(); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestRender_ExecuteError(t *testing.T) {
	fsys := fstest.MapFS{"index.html": {Data: []byte(`{{ .Nope }}`)}}
	r := New(fsys, "index.html", false)
	if err := r.Render(&bytes.Buffer{}, Page{}); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestRender_EmbeddedIndex(t *testing.T) {
	r := New(web.Templates(), "index.html", false)
	var buf bytes.Buffer
	err := r.Render(&buf, Page{Title: "Placements", ChartData: `[]`, Rows: 0, LiveReload: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "var data = [];") {
		t.Errorf("chart data not bound: %s", out)
	}
	if !strings.Contains(out, "/api/events") {
		t.Error("live reload script missing")
	}
}

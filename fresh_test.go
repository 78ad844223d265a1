package fresh

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCounterProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	islandDir := filepath.Join(dir, "islands")
	if err := os.MkdirAll(islandDir, 0o755); err != nil {
		t.Fatal(err)
	}
	counter := `
export default function Counter(start: number) {
  let count = start;
  return {
    value: () => count,
    increment: () => {
      count += 1;
    },
  };
}
`
	if err := os.WriteFile(filepath.Join(islandDir, "counter.ts"), []byte(counter), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCounterScenario(t *testing.T) {
	dir := writeCounterProject(t)

	app, err := New(Config{
		Islands:    []Island{{ID: "Counter", URL: "./islands/counter.ts"}},
		WorkingDir: dir,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := app.EnsureBuilt(context.Background()); err != nil {
		t.Fatal(err)
	}

	contents, ok, err := app.File(context.Background(), "/island-Counter.js")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected /island-Counter.js in the bundle")
	}
	if len(contents) == 0 {
		t.Fatal("expected non-empty island output")
	}

	_, ok, err = app.File(context.Background(), "/does-not-exist.js")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected /does-not-exist.js to be missing")
	}
}

func TestNewRejectsDuplicateIslands(t *testing.T) {
	_, err := New(Config{
		WorkingDir: t.TempDir(),
		Islands: []Island{
			{ID: "Counter", URL: "./a.ts"},
			{ID: "Counter", URL: "./b.ts"},
		},
	})
	if err == nil {
		t.Fatal("expected duplicate island id error")
	}
	if !strings.Contains(err.Error(), "duplicate island id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRejectsMissingImportMap(t *testing.T) {
	_, err := New(Config{
		WorkingDir:    t.TempDir(),
		ImportMapPath: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil {
		t.Fatal("expected import map load error")
	}
}

func TestHandlerServesBundle(t *testing.T) {
	dir := writeCounterProject(t)

	app, err := New(Config{
		Islands:    []Island{{ID: "Counter", URL: "./islands/counter.ts"}},
		BuildID:    "handler-test",
		WorkingDir: dir,
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/island-Counter.js")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/_fresh/build-id")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	id, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(id) != "handler-test" {
		t.Fatalf("expected build id handler-test, got %q", id)
	}
}

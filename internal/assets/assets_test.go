package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceghost/fresh/internal/bundler"
)

type fakeEngine struct {
	result *bundler.Result
	err    error
}

func (f *fakeEngine) Bundle(ctx context.Context, job bundler.Job) (*bundler.Result, error) {
	return f.result, f.err
}

func newBundler(t *testing.T, engine bundler.Engine) *bundler.Bundler {
	t.Helper()
	b, err := bundler.New(bundler.Config{
		WorkingDir: "/work",
		BuildID:    "test-build",
	}, engine)
	require.NoError(t, err)
	return b
}

func TestContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/main.js", "application/javascript; charset=utf-8"},
		{"/island-Counter.js.map", "application/json; charset=utf-8"},
		{"/styles.css", "text/css; charset=utf-8"},
		{"/unknown.wasm", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContentType(tt.path), tt.path)
	}
}

func TestHandlerServesFiles(t *testing.T) {
	engine := &fakeEngine{result: &bundler.Result{
		Files: []bundler.OutputFile{
			{Path: "/work/main.js", Contents: []byte("// main")},
		},
		Metafile: `{"outputs":{}}`,
	}}
	handler := Handler(newBundler(t, engine))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/main.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "// main", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestHandlerStampedURLsAreImmutable(t *testing.T) {
	engine := &fakeEngine{result: &bundler.Result{
		Files:    []bundler.OutputFile{{Path: "/work/main.js", Contents: []byte("// main")}},
		Metafile: `{"outputs":{}}`,
	}}
	handler := Handler(newBundler(t, engine))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/main.js?__frsh_build=test-build", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")
}

func TestHandlerNotFound(t *testing.T) {
	engine := &fakeEngine{result: &bundler.Result{Metafile: `{"outputs":{}}`}}
	handler := Handler(newBundler(t, engine))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.js", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerBuildFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("boom")}
	handler := Handler(newBundler(t, engine))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/main.js", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerBuildID(t *testing.T) {
	handler := Handler(newBundler(t, &fakeEngine{}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, BuildIDPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-build", rec.Body.String())
}

func TestHandlerPreloadLinks(t *testing.T) {
	engine := &fakeEngine{result: &bundler.Result{
		Files: []bundler.OutputFile{
			{Path: "/work/main.js", Contents: []byte("// main")},
			{Path: "/work/chunk-abc.js", Contents: []byte("// chunk")},
		},
		Metafile: `{"outputs":{
			"main.js": {"imports": [{"path": "chunk-abc.js", "kind": "import-statement"}]},
			"chunk-abc.js": {"imports": []}
		}}`,
	}}
	handler := Handler(newBundler(t, engine))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/main.js", nil))

	assert.Equal(t, []string{`</chunk-abc.js>; rel="modulepreload"`}, rec.Header().Values("Link"))
}

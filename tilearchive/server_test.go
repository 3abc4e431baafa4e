package tilearchive

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTestArchive(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	sink, err := NewFileSink(path)
	assert.NoError(t, err)
	w, err := NewWriter(sink, false, CompressionNone, CompressionNone, TileTypePbf)
	assert.NoError(t, err)
	assert.NoError(t, w.WriteTile(Face0, 0, 0, 0, []byte("hello world")))
	_, err = w.Commit(map[string]string{"name": "testmap"})
	assert.NoError(t, err)
	assert.NoError(t, sink.Close())
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	writeTestArchive(t, dir, "testmap.tilearchive")

	resolve := func(name string) (string, string, error) {
		return "file://" + dir, name + ".tilearchive", nil
	}
	logger := log.New(io.Discard, "", 0)
	srv := NewServer(resolve, logger, DefaultCacheCapacity, "", "https://tiles.example.com")
	return srv, dir
}

func TestServerGetTile(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/testmap/0/0/0.mvt", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Equal(t, "application/vnd.mapbox-vector-tile", rec.Header().Get("Content-Type"))
}

func TestServerGetTileWrongExtension(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/testmap/0/0/0.png", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestServerGetTileNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/testmap/5/5/5.mvt", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestServerUnknownArchive(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/doesnotexist/0/0/0.mvt", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestServerGetMetadata(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/testmap/metadata", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"name":"testmap"}`, rec.Body.String())
}

func TestServerGetTileJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/testmap.json", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tilejson":"3.0.0"`)
}

func TestServerRejectsNonGetMethods(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodPost, "/testmap/0/0/0.mvt", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 405, rec.Code)
}

func TestServerReusesReaderAcrossRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/testmap/0/0/0.mvt", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, 200, rec.Code)
	}
	assert.Len(t, srv.readers, 1)
}

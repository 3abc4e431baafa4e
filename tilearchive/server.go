package tilearchive

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"sync"

	"github.com/rs/cors"
)

var tilePattern = regexp.MustCompile(`^/([-A-Za-z0-9_/!\-_.*'()']+)/(\d+)/(\d+)/(\d+)(?:/(\d))?\.([a-z]+)$`)
var metadataPattern = regexp.MustCompile(`^/([-A-Za-z0-9_/!\-_.*'()']+)/metadata$`)
var tileJSONPattern = regexp.MustCompile(`^/([-A-Za-z0-9_/!\-_.*'()']+)\.json$`)

// Server serves tiles, metadata and TileJSON for a directory of
// archives, each identified by a name resolved through resolve.
type Server struct {
	resolve     func(name string) (bucketURL, key string, err error)
	logger      *log.Logger
	cacheSize   int
	publicURL   string
	corsOrigins string
	metrics     *serverMetrics

	mu      sync.Mutex
	readers map[string]*Reader
}

// NewServer builds a Server. resolve maps an archive name from the URL
// path to a bucket URL/key pair understood by OpenRangeProvider.
func NewServer(resolve func(name string) (bucketURL, key string, err error), logger *log.Logger, cacheSize int, corsOrigins, publicURL string) *Server {
	return &Server{
		resolve:     resolve,
		logger:      logger,
		cacheSize:   cacheSize,
		publicURL:   publicURL,
		corsOrigins: corsOrigins,
		metrics:     newServerMetrics("tilearchive"),
		readers:     make(map[string]*Reader),
	}
}

func (s *Server) readerFor(ctx context.Context, name string) (*Reader, error) {
	s.mu.Lock()
	if r, ok := s.readers[name]; ok {
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	bucketURL, key, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	provider, err := OpenRangeProvider(ctx, bucketURL, key)
	if err != nil {
		return nil, err
	}
	reader := NewReader(provider, s.cacheSize)
	reader.CacheObserver = func(hit bool) {
		result := "miss"
		if hit {
			result = "hit"
		}
		s.metrics.cacheRequests.WithLabelValues(name, result).Inc()
	}
	if err := reader.Open(ctx); err != nil {
		provider.Close()
		return nil, err
	}

	s.mu.Lock()
	s.readers[name] = reader
	s.mu.Unlock()
	return reader, nil
}

func parseTilePath(path string) (ok bool, name string, z uint8, x, y uint32, face Face, ext string) {
	m := tilePattern.FindStringSubmatch(path)
	if m == nil {
		return false, "", 0, 0, 0, 0, ""
	}
	zi, _ := strconv.ParseUint(m[2], 10, 8)
	xi, _ := strconv.ParseUint(m[3], 10, 32)
	yi, _ := strconv.ParseUint(m[4], 10, 32)
	var f uint64
	if m[5] != "" {
		f, _ = strconv.ParseUint(m[5], 10, 8)
	}
	return true, m[1], uint8(zi), uint32(xi), uint32(yi), Face(f), m[6]
}

func parseTileJSONPath(path string) (bool, string) {
	if m := tileJSONPattern.FindStringSubmatch(path); m != nil {
		return true, m[1]
	}
	return false, ""
}

func parseMetadataPath(path string) (bool, string) {
	if m := metadataPattern.FindStringSubmatch(path); m != nil {
		return true, m[1]
	}
	return false, ""
}

func (s *Server) getTile(ctx context.Context, name string, z uint8, x, y uint32, face Face, ext string) (int, map[string]string, []byte) {
	headers := map[string]string{}
	reader, err := s.readerFor(ctx, name)
	if err != nil {
		return 404, headers, []byte("archive not found")
	}
	header, err := reader.Header(ctx)
	if err != nil {
		return 500, headers, []byte("i/o error")
	}
	if ext != tileTypeExt(header.TileType) {
		return 400, headers, []byte("path mismatch: wrong tile extension for this archive")
	}

	data, found, err := reader.GetTile(ctx, face, z, x, y)
	if err != nil {
		return 500, headers, []byte("i/o error")
	}
	if !found {
		return 404, headers, []byte("tile not found")
	}
	if ct, ok := tileTypeContentType(header.TileType); ok {
		headers["Content-Type"] = ct
	}
	return 200, headers, data
}

func (s *Server) getMetadata(ctx context.Context, name string) (int, map[string]string, []byte) {
	headers := map[string]string{"Content-Type": "application/json"}
	reader, err := s.readerFor(ctx, name)
	if err != nil {
		return 404, headers, []byte("archive not found")
	}
	metadata, err := reader.Metadata(ctx)
	if err != nil {
		return 500, headers, []byte("i/o error")
	}
	return 200, headers, metadata
}

func (s *Server) getTileJSON(ctx context.Context, name string) (int, map[string]string, []byte) {
	headers := map[string]string{"Content-Type": "application/json"}
	if s.publicURL == "" {
		return 501, headers, []byte("public URL must be configured for TileJSON")
	}
	reader, err := s.readerFor(ctx, name)
	if err != nil {
		return 404, headers, []byte("archive not found")
	}
	header, err := reader.Header(ctx)
	if err != nil {
		return 500, headers, []byte("i/o error")
	}
	metadata, err := reader.Metadata(ctx)
	if err != nil {
		return 500, headers, []byte("i/o error")
	}
	body, err := CreateTileJSON(header, metadata, s.publicURL+"/"+name)
	if err != nil {
		return 500, headers, []byte("error generating tilejson")
	}
	return 200, headers, body
}

func (s *Server) route(ctx context.Context, path string) (archive, handler string, status int, headers map[string]string, body []byte) {
	if ok, name, z, x, y, face, ext := parseTilePath(path); ok {
		status, headers, body = s.getTile(ctx, name, z, x, y, face, ext)
		return name, "tile", status, headers, body
	}
	if ok, name := parseTileJSONPath(path); ok {
		status, headers, body = s.getTileJSON(ctx, name)
		return name, "tilejson", status, headers, body
	}
	if ok, name := parseMetadataPath(path); ok {
		status, headers, body = s.getMetadata(ctx, name)
		return name, "metadata", status, headers, body
	}
	if path == "/" {
		return "", "/", 204, map[string]string{}, []byte{}
	}
	return "", "404", 404, map[string]string{}, []byte("path not found")
}

// ServeHTTP handles one request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tracker := s.metrics.startRequest()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(405)
		tracker.finish("", r.Method, 405, 0)
		return
	}
	archive, handler, status, headers, body := s.route(r.Context(), r.URL.Path)
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(status)
	if r.Method == http.MethodGet {
		w.Write(body)
	}
	tracker.finish(archive, handler, status, len(body))
}

// Handler wraps the server with CORS middleware configured from
// corsOrigins (a single allowed origin, or "*").
func (s *Server) Handler() http.Handler {
	if s.corsOrigins == "" {
		return s
	}
	c := cors.New(cors.Options{
		AllowedOrigins: []string{s.corsOrigins},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	})
	return c.Handler(s)
}

// Close releases every archive reader opened by this server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, r := range s.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("tilearchive: closing archive %q: %w", name, err)
		}
	}
	return firstErr
}

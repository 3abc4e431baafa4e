package caddy

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caddyserver/caddy/v2"
	"github.com/caddyserver/caddy/v2/caddyconfig/caddyfile"
	"github.com/caddyserver/caddy/v2/caddyconfig/httpcaddyfile"
	"github.com/caddyserver/caddy/v2/modules/caddyhttp"
	"go.uber.org/zap"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/tilequad/tilearchive/tilearchive"
)

func init() {
	caddy.RegisterModule(Middleware{})
	httpcaddyfile.RegisterHandlerDirective("tilearchive_proxy", parseCaddyfile)
}

// Middleware serves a directory or bucket of archives at the root of
// whatever Caddy route it's attached to.
type Middleware struct {
	Bucket    string `json:"bucket"`
	CacheSize int    `json:"cache_size"`
	PublicURL string `json:"public_url"`
	logger    *zap.Logger
	server    *tilearchive.Server
}

// CaddyModule returns the Caddy module information.
func (Middleware) CaddyModule() caddy.ModuleInfo {
	return caddy.ModuleInfo{
		ID:  "http.handlers.tilearchive_proxy",
		New: func() caddy.Module { return new(Middleware) },
	}
}

func (m *Middleware) Provision(ctx caddy.Context) error {
	m.logger = ctx.Logger()
	stdLogger := log.New(io.Discard, "", log.Ldate)
	base := strings.TrimSuffix(m.Bucket, "/")
	resolve := func(name string) (string, string, error) {
		return base, name, nil
	}
	m.server = tilearchive.NewServer(resolve, stdLogger, m.CacheSize, "", m.PublicURL)
	return nil
}

func (m *Middleware) Validate() error {
	if m.Bucket == "" {
		return fmt.Errorf("no bucket")
	}
	if m.CacheSize <= 0 {
		m.CacheSize = tilearchive.DefaultCacheCapacity
	}
	return nil
}

func (m Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request, next caddyhttp.Handler) error {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, statusCode: 200}
	m.server.ServeHTTP(rec, r)
	m.logger.Info("response", zap.Int("status", rec.statusCode), zap.String("path", r.URL.Path), zap.Duration("duration", time.Since(start)))
	return next.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.statusCode = code
	s.ResponseWriter.WriteHeader(code)
}

func (m *Middleware) UnmarshalCaddyfile(d *caddyfile.Dispenser) error {
	for d.Next() {
		for nesting := d.Nesting(); d.NextBlock(nesting); {
			switch d.Val() {
			case "bucket":
				if !d.Args(&m.Bucket) {
					return d.ArgErr()
				}
			case "cache_size":
				var cacheSize string
				if !d.Args(&cacheSize) {
					return d.ArgErr()
				}
				num, err := strconv.Atoi(cacheSize)
				if err != nil {
					return d.ArgErr()
				}
				m.CacheSize = num
			case "public_url":
				if !d.Args(&m.PublicURL) {
					return d.ArgErr()
				}
			}
		}
	}
	return nil
}

func parseCaddyfile(h httpcaddyfile.Helper) (caddyhttp.MiddlewareHandler, error) {
	var m Middleware
	err := m.UnmarshalCaddyfile(h.Dispenser)
	return m, err
}

var (
	_ caddy.Provisioner           = (*Middleware)(nil)
	_ caddy.Validator             = (*Middleware)(nil)
	_ caddyhttp.MiddlewareHandler = (*Middleware)(nil)
	_ caddyfile.Unmarshaler       = (*Middleware)(nil)
)

// Package compression negotiates Brotli or gzip encoding of API responses.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"
)

// Config controls response compression behavior.
type Config struct {
	Enabled      bool
	EnableGzip   bool
	EnableBrotli bool
	GzipLevel    int
	BrotliLevel  int
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize                  int
	CompressibleContentTypes []string
	ExcludedPathPrefixes     []string
}

// DefaultConfig compresses JSON and text bodies of at least 1 KiB.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		EnableGzip:   true,
		EnableBrotli: true,
		GzipLevel:    gzip.DefaultCompression,
		BrotliLevel:  4,
		MinSize:      1024,
		CompressibleContentTypes: []string{
			"text/",
			"application/json",
			"application/javascript",
			"application/xml",
			"image/svg+xml",
		},
	}
}

// Middleware compresses responses with the encoding the client prefers among
// the enabled ones. Responses that already carry a Content-Encoding, have no
// body, or have a content type outside CompressibleContentTypes pass through.
func Middleware(cfg Config) gin.HandlerFunc {
	cfg = normalizeConfig(cfg)

	return func(c *gin.Context) {
		if !cfg.Enabled || c.Request.Method == http.MethodHead || isExcludedPath(c.Request.URL.Path, cfg.ExcludedPathPrefixes) {
			c.Next()
			return
		}

		encoding := negotiateEncoding(c.Request.Header.Get("Accept-Encoding"), cfg)
		if encoding == "" {
			c.Next()
			return
		}

		appendVary(c.Writer.Header(), "Accept-Encoding")

		base := c.Writer
		w := &compressWriter{ResponseWriter: base, encoding: encoding, cfg: cfg}
		c.Writer = w
		defer func() {
			if err := w.Close(); err != nil {
				_ = c.Error(fmt.Errorf("compression: %w", err))
			}
			c.Writer = base
		}()

		c.Next()
	}
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if !cfg.EnableGzip && !cfg.EnableBrotli {
		cfg.EnableGzip = def.EnableGzip
		cfg.EnableBrotli = def.EnableBrotli
	}
	if cfg.GzipLevel == 0 {
		cfg.GzipLevel = def.GzipLevel
	}
	if cfg.BrotliLevel <= 0 {
		cfg.BrotliLevel = def.BrotliLevel
	}
	if cfg.MinSize < 0 {
		cfg.MinSize = 0
	}
	if len(cfg.CompressibleContentTypes) == 0 {
		cfg.CompressibleContentTypes = def.CompressibleContentTypes
	}
	return cfg
}

func isExcludedPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.TrimSpace(prefix) != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// negotiateEncoding picks br or gzip from an Accept-Encoding header. Brotli
// wins ties; "*" stands in for encodings not named explicitly.
func negotiateEncoding(acceptEncoding string, cfg Config) string {
	if acceptEncoding == "" {
		return ""
	}

	qBr, hasBr := qualityForEncoding(acceptEncoding, encodingBrotli)
	qGzip, hasGzip := qualityForEncoding(acceptEncoding, encodingGzip)
	qAny, hasAny := qualityForEncoding(acceptEncoding, "*")

	if !hasBr && hasAny {
		qBr, hasBr = qAny, true
	}
	if !hasGzip && hasAny {
		qGzip, hasGzip = qAny, true
	}

	best := ""
	bestQ := float64(0)
	if cfg.EnableBrotli && hasBr && qBr > 0 {
		best, bestQ = encodingBrotli, qBr
	}
	if cfg.EnableGzip && hasGzip && qGzip > bestQ {
		best = encodingGzip
	}
	return best
}

func qualityForEncoding(acceptEncoding, encoding string) (float64, bool) {
	for _, part := range strings.Split(acceptEncoding, ",") {
		sections := strings.Split(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(sections[0]), encoding) {
			continue
		}

		q := 1.0
		for _, section := range sections[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(section), "=")
			if !ok || !strings.EqualFold(key, "q") {
				continue
			}
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				q = parsed
			}
		}
		return q, true
	}
	return 0, false
}

// compressWriter buffers the body until MinSize bytes arrive or the handler
// finishes, then decides once whether to compress.
type compressWriter struct {
	gin.ResponseWriter

	encoding string
	cfg      Config

	buffer   bytes.Buffer
	decided  bool
	compress bool
	encoder  io.WriteCloser
}

func (w *compressWriter) Write(p []byte) (int, error) {
	if w.decided {
		if w.compress {
			return w.encoder.Write(p)
		}
		return w.ResponseWriter.Write(p)
	}

	w.buffer.Write(p)
	if w.buffer.Len() >= w.cfg.MinSize && w.cfg.MinSize > 0 {
		if err := w.decide(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Written reports buffered bytes as written so later middleware does not
// write a second response.
func (w *compressWriter) Written() bool {
	return w.buffer.Len() > 0 || w.ResponseWriter.Written()
}

func (w *compressWriter) Flush() {
	if !w.decided && w.buffer.Len() > 0 {
		_ = w.decide()
	}
	if f, ok := w.encoder.(interface{ Flush() error }); ok && w.compress {
		_ = f.Flush()
	}
	w.ResponseWriter.Flush()
}

func (w *compressWriter) decide() error {
	w.decided = true
	header := w.Header()
	contentType := header.Get("Content-Type")

	switch {
	case noBodyStatus(w.Status()),
		strings.TrimSpace(header.Get("Content-Encoding")) != "",
		w.buffer.Len() < w.cfg.MinSize,
		!isCompressibleContentType(contentType, w.cfg.CompressibleContentTypes):
		return w.flushPlain()
	}

	switch w.encoding {
	case encodingBrotli:
		w.encoder = brotli.NewWriterLevel(w.ResponseWriter, w.cfg.BrotliLevel)
	case encodingGzip:
		gz, err := gzip.NewWriterLevel(w.ResponseWriter, w.cfg.GzipLevel)
		if err != nil {
			return fmt.Errorf("create gzip writer: %w", err)
		}
		w.encoder = gz
	default:
		return w.flushPlain()
	}

	w.compress = true
	header.Del("Content-Length")
	header.Set("Content-Encoding", w.encoding)
	if w.buffer.Len() == 0 {
		return nil
	}
	_, err := w.encoder.Write(w.buffer.Bytes())
	w.buffer.Reset()
	return err
}

func (w *compressWriter) flushPlain() error {
	if w.buffer.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buffer.Bytes())
	w.buffer.Reset()
	return err
}

// Close flushes whatever is buffered and finishes the compressed stream.
func (w *compressWriter) Close() error {
	if !w.decided {
		if w.buffer.Len() == 0 {
			return nil
		}
		if err := w.decide(); err != nil {
			return err
		}
	}
	if w.compress {
		return w.encoder.Close()
	}
	return nil
}

func noBodyStatus(code int) bool {
	return code == http.StatusNoContent || code == http.StatusNotModified || (code >= 100 && code < 200)
}

func isCompressibleContentType(contentType string, allow []string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return true
	}
	for _, prefix := range allow {
		if strings.HasPrefix(ct, strings.ToLower(strings.TrimSpace(prefix))) {
			return true
		}
	}
	return false
}

func appendVary(header http.Header, value string) {
	current := header.Get("Vary")
	if current == "" {
		header.Set("Vary", value)
		return
	}
	for _, part := range strings.Split(current, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return
		}
	}
	header.Set("Vary", current+", "+value)
}

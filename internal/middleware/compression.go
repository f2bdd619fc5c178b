package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum response size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9, 9 is best compression)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024, // Batch evaluation payloads easily exceed this
		CompressionLevel: 6,
		ContentTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
		},
	}
}

// CompressionMiddleware provides gzip compression for HTTP responses
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	return &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
		pool: sync.Pool{
			New: func() interface{} {
				gz, _ := gzip.NewWriterLevel(io.Discard, config.CompressionLevel)
				return gz
			},
		},
	}
}

// Handler returns a Gin middleware that gzips eligible responses
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gzw := &gzipResponseWriter{
			ResponseWriter: c.Writer,
			middleware:     cm,
		}
		c.Writer = gzw

		c.Next()

		gzw.close()
	}
}

// shouldCompress checks if the content type should be compressed
func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

// gzipResponseWriter wraps gin's ResponseWriter and defers the compression
// decision until the first write, so small bodies pass through untouched.
type gzipResponseWriter struct {
	gin.ResponseWriter
	middleware *CompressionMiddleware
	gz         *gzip.Writer
	decided    bool
	compressed bool
	rawBytes   int64
}

func (gzw *gzipResponseWriter) Write(data []byte) (int, error) {
	gzw.rawBytes += int64(len(data))

	if !gzw.decided {
		gzw.decided = true
		contentType := gzw.Header().Get("Content-Type")
		if len(data) >= gzw.middleware.config.MinSize && gzw.middleware.shouldCompress(contentType) {
			gzw.compressed = true
			gzw.Header().Set("Content-Encoding", "gzip")
			gzw.Header().Set("Vary", "Accept-Encoding")
			gzw.Header().Del("Content-Length")

			gzw.gz = gzw.middleware.pool.Get().(*gzip.Writer)
			gzw.gz.Reset(gzw.ResponseWriter)
		}
	}

	if gzw.compressed {
		if n, err := gzw.gz.Write(data); err != nil {
			return n, err
		}
		return len(data), nil
	}
	return gzw.ResponseWriter.Write(data)
}

func (gzw *gzipResponseWriter) WriteString(s string) (int, error) {
	return gzw.Write([]byte(s))
}

func (gzw *gzipResponseWriter) close() {
	if gzw.compressed && gzw.gz != nil {
		gzw.gz.Close()
		gzw.middleware.pool.Put(gzw.gz)
	}

	compressedBytes := gzw.rawBytes
	if gzw.compressed {
		// gin's writer counts what actually hit the wire.
		compressedBytes = int64(gzw.ResponseWriter.Size())
	}
	gzw.middleware.stats.RecordRequest(gzw.rawBytes, compressedBytes, gzw.compressed)
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.CompressedBytes += compressedSize
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(0)
	if cs.TotalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.TotalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
	}
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}

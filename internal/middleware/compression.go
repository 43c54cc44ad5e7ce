package middleware

import (
	"bufio"
	"io"
	"log"
	"mime"
	"mwu-go/internal/compression"
	"net"
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultBufferSize = 32 * 1024 // 32KB
	// 小于该长度的响应不压缩
	minCompressSize = 256
)

// ManagerSource 返回当前的压缩管理器，配置热更新后会变化
type ManagerSource func() compression.Manager

type CompressResponseWriter struct {
	http.ResponseWriter
	compressor     compression.Compressor
	writer         io.WriteCloser
	bufferedWriter *bufio.Writer
	written        bool
	compressed     bool
}

// CompressionMiddleware 每个请求从 source 取一次管理器
func CompressionMiddleware(source ManagerSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			manager := source()
			if manager == nil || !manager.Enabled() || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			compressor := manager.SelectCompressor(r.Header.Get("Accept-Encoding"))
			if compressor == nil {
				next.ServeHTTP(w, r)
				return
			}

			cw := &CompressResponseWriter{
				ResponseWriter: w,
				compressor:     compressor,
			}
			cw.Header().Add("Vary", "Accept-Encoding")

			defer cw.close()
			next.ServeHTTP(cw, r)
		})
	}
}

func (cw *CompressResponseWriter) WriteHeader(statusCode int) {
	if cw.written {
		return
	}
	cw.written = true

	h := cw.Header()
	cw.compressed = shouldCompressForStatus(statusCode) &&
		h.Get("Content-Encoding") == "" &&
		shouldCompressType(h.Get("Content-Type")) &&
		!tooSmall(h.Get("Content-Length"))

	if cw.compressed {
		h.Set("Content-Encoding", string(cw.compressor.Encoding()))
		h.Del("Content-Length") // 因为内容将被压缩，原长度不再有效
	}
	cw.ResponseWriter.WriteHeader(statusCode)
}

func (cw *CompressResponseWriter) Write(b []byte) (int, error) {
	if !cw.written {
		if cw.Header().Get("Content-Type") == "" {
			cw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		cw.WriteHeader(http.StatusOK)
	}

	if !cw.compressed {
		return cw.ResponseWriter.Write(b)
	}

	// 延迟初始化压缩写入器
	if cw.writer == nil {
		var err error
		cw.writer, err = cw.compressor.Compress(cw.ResponseWriter)
		if err != nil {
			return 0, err
		}
		cw.bufferedWriter = bufio.NewWriterSize(cw.writer, defaultBufferSize)
	}

	return cw.bufferedWriter.Write(b)
}

func (cw *CompressResponseWriter) close() {
	if cw.writer == nil {
		return
	}
	if err := cw.bufferedWriter.Flush(); err != nil {
		log.Printf("[Compression] 刷新缓冲区失败: %v", err)
	}
	if err := cw.writer.Close(); err != nil {
		log.Printf("[Compression] 关闭压缩写入器失败: %v", err)
	}
}

// 实现 http.Hijacker 接口
func (cw *CompressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := cw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// 实现 http.Flusher 接口
func (cw *CompressResponseWriter) Flush() {
	if cw.bufferedWriter != nil {
		cw.bufferedWriter.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// 只压缩带页面正文的状态码
func shouldCompressForStatus(status int) bool {
	return status == http.StatusOK ||
		status == http.StatusNotFound ||
		status == http.StatusForbidden
}

var compressiblePrefixes = []string{
	"text/",
	"application/javascript",
	"application/json",
	"application/xml",
	"image/svg+xml",
}

// 判断是否应该对该内容类型进行压缩
func shouldCompressType(contentType string) bool {
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, prefix := range compressiblePrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

func tooSmall(contentLength string) bool {
	if contentLength == "" {
		return false
	}
	n, err := strconv.Atoi(contentLength)
	return err == nil && n < minCompressSize
}

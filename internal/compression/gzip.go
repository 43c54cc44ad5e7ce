package compression

import (
	"compress/gzip"
	"io"
	"sync"
)

type GzipCompressor struct {
	level int
	pool  sync.Pool
}

func NewGzipCompressor(level int) *GzipCompressor {
	// 确保level在有效范围内
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	g := &GzipCompressor{level: level}
	g.pool.New = func() interface{} {
		// level 已校验，不会出错
		w, _ := gzip.NewWriterLevel(io.Discard, g.level)
		return w
	}
	return g
}

func (g *GzipCompressor) Encoding() CompressionType {
	return CompressionGzip
}

func (g *GzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	gz := g.pool.Get().(*gzip.Writer)
	gz.Reset(w)
	return &pooledGzipWriter{Writer: gz, pool: &g.pool}, nil
}

// pooledGzipWriter Close 后归还到池中
type pooledGzipWriter struct {
	*gzip.Writer
	pool *sync.Pool
}

func (p *pooledGzipWriter) Close() error {
	if p.Writer == nil {
		return nil
	}
	err := p.Writer.Close()
	p.pool.Put(p.Writer)
	p.Writer = nil
	return err
}

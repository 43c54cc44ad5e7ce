package compression

import "io"

// Compressor 一种内容编码
type Compressor interface {
	// Encoding 对应的 Content-Encoding 值
	Encoding() CompressionType
	// Compress 包装 w，Close 时写出剩余数据
	Compress(w io.Writer) (io.WriteCloser, error)
}

// CompressionType 表示压缩类型
type CompressionType string

const (
	CompressionGzip   CompressionType = "gzip"
	CompressionBrotli CompressionType = "br"
)

// Manager 压缩管理器接口
type Manager interface {
	// SelectCompressor 根据 Accept-Encoding 头选择压缩器，没有可用的返回 nil
	SelectCompressor(acceptEncoding string) Compressor
	// Enabled 是否启用了任一压缩器
	Enabled() bool
}

package compression

import (
	"mwu-go/internal/config"
	"strconv"
	"strings"
)

type compressionManager struct {
	// 按优先级排列
	compressors []Compressor
}

// NewManager 创建新的压缩管理器，brotli 优先于 gzip
func NewManager(cfg config.CompressionConfig) Manager {
	m := &compressionManager{}

	if cfg.Brotli.Enabled {
		m.compressors = append(m.compressors, NewBrotliCompressor(cfg.Brotli.Level))
	}
	if cfg.Gzip.Enabled {
		m.compressors = append(m.compressors, NewGzipCompressor(cfg.Gzip.Level))
	}

	return m
}

func (m *compressionManager) Enabled() bool {
	return len(m.compressors) > 0
}

// SelectCompressor 实现 Manager 接口，q=0 的编码视为拒绝
func (m *compressionManager) SelectCompressor(acceptEncoding string) Compressor {
	if len(m.compressors) == 0 || acceptEncoding == "" {
		return nil
	}

	accepted := parseAcceptEncoding(acceptEncoding)
	for _, c := range m.compressors {
		q, ok := accepted[string(c.Encoding())]
		if !ok {
			q, ok = accepted["*"]
		}
		if ok && q > 0 {
			return c
		}
	}
	return nil
}

// parseAcceptEncoding 解析 "br;q=1.0, gzip;q=0.8, *;q=0"
func parseAcceptEncoding(header string) map[string]float64 {
	result := make(map[string]float64)
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		q := 1.0
		for _, p := range strings.Split(params, ";") {
			key, value, found := strings.Cut(strings.TrimSpace(p), "=")
			if !found || strings.TrimSpace(key) != "q" {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				q = v
			}
		}
		result[name] = q
	}
	return result
}

package config

import (
	"encoding/json"
	"fmt"
	"math"
	apperrors "mwu-go/internal/errors"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings 配置文档的键值视图，访问器在类型不符时返回 ErrConfigMalformed
type Settings struct {
	values map[string]interface{}
}

// ParseSettings 按扩展名解析 JSON 或 YAML
func ParseSettings(data []byte, filename string) (*Settings, error) {
	values := make(map[string]interface{})

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse json %s: %w", filename, err)
		}
	}

	return &Settings{values: values}, nil
}

func NewSettings(values map[string]interface{}) *Settings {
	if values == nil {
		values = make(map[string]interface{})
	}
	return &Settings{values: values}
}

func (s *Settings) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *Settings) lookup(key string) (interface{}, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, apperrors.New(apperrors.ErrConfigMissing, "key "+key+" not found", nil)
	}
	return v, nil
}

func malformed(key, want string, got interface{}) error {
	return apperrors.New(apperrors.ErrConfigMalformed,
		fmt.Sprintf("key %s: expected %s, got %T", key, want, got), nil)
}

func (s *Settings) Bool(key string) (bool, error) {
	v, err := s.lookup(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, malformed(key, "bool", v)
	}
	return b, nil
}

func (s *Settings) String(key string) (string, error) {
	v, err := s.lookup(key)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", malformed(key, "string", v)
	}
	return str, nil
}

// Int JSON 数字解码为 float64，YAML 为 int，两者都接受，但必须是整数
func (s *Settings) Int(key string) (int, error) {
	v, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, malformed(key, "int", v)
		}
		return int(n), nil
	}
	return 0, malformed(key, "int", v)
}

func (s *Settings) Float(key string) (float64, error) {
	v, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, malformed(key, "number", v)
}

// Section 取嵌套对象
func (s *Settings) Section(key string) (*Settings, error) {
	v, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	switch m := v.(type) {
	case map[string]interface{}:
		return &Settings{values: m}, nil
	}
	return nil, malformed(key, "object", v)
}

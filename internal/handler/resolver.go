package handler

import (
	"log"
	"mwu-go/internal/constants"
	apperrors "mwu-go/internal/errors"
	"mwu-go/internal/interfaces"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Outcome 终端分支的结果，用于统计
type Outcome struct {
	Status    int
	BytesSent int64
	Branch    string
}

// Resolution 一次请求的解析上下文
type Resolution struct {
	Root        string // 内容根目录
	Target      string // 规范化后的相对路径
	Maintenance bool
}

// File 返回 Target 在内容根目录下的路径；越出根目录的路径视为不存在
func (res *Resolution) File(name string) (string, bool) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.Join(res.Root, rel), true
}

// Resolver 解析链中的一环：匹配则写出响应并返回 true
type Resolver interface {
	Resolve(w http.ResponseWriter, r *http.Request, res *Resolution) (Outcome, bool, error)
}

// ResolveTarget 维护模式下一律指向维护页面，否则 "/" 映射到默认文档，其余去掉一个前导 "/"
func ResolveTarget(path string, maintenance bool) string {
	if maintenance {
		return constants.MaintenanceDocument
	}
	if path == "/" {
		return constants.DefaultDocument
	}
	return strings.TrimPrefix(path, "/")
}

// 固定的扩展名到 MIME 类型映射
var mimeTypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"txt":  "text/plain",
	"xml":  "application/xml",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

const defaultMimeType = "application/octet-stream"

// ContentType 根据扩展名返回 MIME 类型，未知扩展名返回 application/octet-stream
func ContentType(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return defaultMimeType
}

// regularFile 判断路径是否为普通文件，目录不算命中
func regularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func readContent(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrContentRead, "read "+path, err)
	}
	return data, nil
}

func writeBody(w http.ResponseWriter, status int, contentType string, data []byte) int64 {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Printf("[Static] 写入响应失败: %v", err)
	}
	return int64(len(data))
}

// StaticFileResolver 内容根目录下存在的文件，200
type StaticFileResolver struct{}

func (StaticFileResolver) Resolve(w http.ResponseWriter, r *http.Request, res *Resolution) (Outcome, bool, error) {
	path, ok := res.File(res.Target)
	if !ok || !regularFile(path) {
		return Outcome{}, false, nil
	}

	data, err := readContent(path)
	if err != nil {
		return Outcome{}, false, err
	}

	n := writeBody(w, http.StatusOK, ContentType(path), data)
	log.Printf("[Static] Served file: %s", path)
	return Outcome{Status: http.StatusOK, BytesSent: n, Branch: "static"}, true, nil
}

// NotFoundPageResolver 内容根目录下的 404.html
type NotFoundPageResolver struct{}

func (NotFoundPageResolver) Resolve(w http.ResponseWriter, r *http.Request, res *Resolution) (Outcome, bool, error) {
	path, _ := res.File(constants.NotFoundDocument)
	if !regularFile(path) {
		return Outcome{}, false, nil
	}

	data, err := readContent(path)
	if err != nil {
		return Outcome{}, false, err
	}

	n := writeBody(w, http.StatusNotFound, "text/html", data)
	log.Printf("[Static] Served %s for missing file: %s", constants.NotFoundDocument, res.Target)
	return Outcome{Status: http.StatusNotFound, BytesSent: n, Branch: "not_found_page"}, true, nil
}

// NotFoundResponderResolver 交给自定义 404 响应器，统计上固定为 404、0 字节
type NotFoundResponderResolver struct {
	Responder interfaces.NotFoundResponder
}

func (nr NotFoundResponderResolver) Resolve(w http.ResponseWriter, r *http.Request, res *Resolution) (Outcome, bool, error) {
	if nr.Responder == nil {
		return Outcome{}, false, nil
	}
	nr.Responder.ServeNotFound(w, r)
	log.Printf("[Static] Executed custom not-found responder for missing file: %s", res.Target)
	return Outcome{Status: http.StatusNotFound, Branch: "not_found_responder"}, true, nil
}

// BareNotFoundResolver 兜底，404 无响应体
type BareNotFoundResolver struct{}

func (BareNotFoundResolver) Resolve(w http.ResponseWriter, r *http.Request, res *Resolution) (Outcome, bool, error) {
	w.WriteHeader(http.StatusNotFound)
	log.Printf("[Static] File not found and no 404 handler: %s", filepath.Join(res.Root, filepath.FromSlash(res.Target)))
	return Outcome{Status: http.StatusNotFound, Branch: "bare_not_found"}, true, nil
}

// DefaultResolvers 默认解析链：静态文件 → 404.html → 自定义响应器 → 空 404
func DefaultResolvers(notFound interfaces.NotFoundResponder) []Resolver {
	return []Resolver{
		StaticFileResolver{},
		NotFoundPageResolver{},
		NotFoundResponderResolver{Responder: notFound},
		BareNotFoundResolver{},
	}
}

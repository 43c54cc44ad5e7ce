package handler

import (
	"log"
	"net/http"
	"strconv"
)

const defaultNotFoundHTML = "<h1>404 Not Found</h1><p>The requested page does not exist.</p>"

// NotFoundPage 默认的自定义 404 响应器，HTML 为空时使用内置页面
type NotFoundPage struct {
	HTML string
}

func NewNotFoundPage(html string) *NotFoundPage {
	return &NotFoundPage{HTML: html}
}

func (p *NotFoundPage) ServeNotFound(w http.ResponseWriter, r *http.Request) {
	body := p.HTML
	if body == "" {
		body = defaultNotFoundHTML
	}

	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusNotFound)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("[NotFound] 写入响应失败: %v", err)
	}
}

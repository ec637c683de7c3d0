package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct{}

func NewSEOHandler() *SEOHandler {
	return &SEOHandler{}
}

// RobotsTxt keeps crawlers on the public feeds
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := `User-agent: *
Allow: /

# 禁止爬取需要登录的页面
Disallow: /profile
Disallow: /update/
Disallow: /edit/
Disallow: /delete/
Disallow: /like/

Disallow: /login
Disallow: /register
Disallow: /logout
Disallow: /metrics
`

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

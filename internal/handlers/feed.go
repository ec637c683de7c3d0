package handlers

import (
	"net/http"

	"hangspot/internal/middleware"
	"hangspot/internal/models"
	"hangspot/internal/services"
	"hangspot/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedHandler struct {
	feed *services.FeedService
	log  *zap.Logger
}

func NewFeedHandler(feed *services.FeedService, log *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, log: log}
}

// Home 首页：Wifi 和 Hangout 合并展示
func (h *FeedHandler) Home(c *gin.Context) {
	h.list(c, models.AllKinds, "", "Latest spots")
}

// ListByKind shows a single kind, e.g. /wifi?page=2
func (h *FeedHandler) ListByKind(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	h.list(c, []models.UpdateKind{kind}, kind, kind.String()+" spots")
}

func (h *FeedHandler) list(c *gin.Context, kinds []models.UpdateKind, kind models.UpdateKind, title string) {
	number := utils.ParseIntDefault(c.Query("page"), 1)

	var viewerID uint
	if user := middleware.CurrentUser(c); user != nil {
		viewerID = user.ID
	}

	page, err := h.feed.Page(c.Request.Context(), kinds, number, viewerID)
	if err != nil {
		h.log.Error("load feed", zap.Int("page", number), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Something went wrong, please try again later")
		return
	}

	Render(c, http.StatusOK, "update/list.html", gin.H{
		"Title":   title,
		"Kind":    kind,
		"Updates": page.Items,
		"Page":    page.Page,
		"BaseURL": c.Request.URL.Path,
	})
}

package handlers

import (
	"net/http"

	"hangspot/internal/middleware"
	"hangspot/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	feed *services.FeedService
	log  *zap.Logger
}

func NewUserHandler(feed *services.FeedService, log *zap.Logger) *UserHandler {
	return &UserHandler{feed: feed, log: log}
}

// Profile - 当前用户的主页，列出自己发布的点位
func (h *UserHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)

	items, err := h.feed.ByUser(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("load profile", zap.Uint("user_id", user.ID), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Something went wrong, please try again later")
		return
	}

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":   user.Username,
		"User":    user,
		"Updates": items,
	})
}

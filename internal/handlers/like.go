package handlers

import (
	"errors"
	"net/http"

	"hangspot/internal/metrics"
	"hangspot/internal/middleware"
	"hangspot/internal/repositories"
	"hangspot/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LikeHandler struct {
	likes repositories.LikeRepository
	feed  *services.FeedService
	log   *zap.Logger
}

func NewLikeHandler(likes repositories.LikeRepository, feed *services.FeedService, log *zap.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, feed: feed, log: log}
}

// Toggle likes the update, or unlikes it if the user already did
func (h *LikeHandler) Toggle(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Update not found")
		return
	}
	user := middleware.CurrentUser(c)

	liked, err := h.likes.Toggle(c.Request.Context(), user.ID, kind, id)
	if errors.Is(err, repositories.ErrNotFound) {
		RenderError(c, http.StatusNotFound, "Update not found")
		return
	}
	if err != nil {
		h.log.Error("toggle like", zap.String("kind", kind.String()), zap.Uint("id", id), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Something went wrong, please try again later")
		return
	}

	state := "unliked"
	if liked {
		state = "liked"
	}
	metrics.LikeToggles.WithLabelValues(kind.String(), state).Inc()
	h.feed.Invalidate()

	c.Redirect(http.StatusFound, backOr(c, "/"))
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"hangspot/internal/metrics"
	"hangspot/internal/middleware"
	"hangspot/internal/models"
	"hangspot/internal/repositories"
	"hangspot/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UpdateHandler struct {
	updates repositories.UpdateRepository
	images  services.ImageStore
	feed    *services.FeedService
	log     *zap.Logger
}

func NewUpdateHandler(updates repositories.UpdateRepository, images services.ImageStore, feed *services.FeedService, log *zap.Logger) *UpdateHandler {
	return &UpdateHandler{updates: updates, images: images, feed: feed, log: log}
}

type updateForm struct {
	Name         string   `form:"name" binding:"required,max=200"`
	Address      string   `form:"address" binding:"max=300"`
	OpeningTime  string   `form:"opening_time" binding:"required"`
	ClosingTime  string   `form:"closing_time" binding:"required"`
	Description  string   `form:"description" binding:"max=10000"`
	Days         []string `form:"days"`
	WifiStrength int      `form:"wifi_strength" binding:"min=0,max=100"`
}

// spotForm 是表单模板使用的数据，时间为 24 小时制以便回填 <input type="time">
type spotForm struct {
	ID           uint
	Name         string
	Address      string
	OpeningTime  string
	ClosingTime  string
	Description  string
	Days         models.Weekdays
	WifiStrength int
	Image        string
}

func formFromItem(item *models.FeedItem) spotForm {
	f := spotForm{
		ID:          item.ID,
		Name:        item.Name,
		Address:     item.Address,
		OpeningTime: services.To24Hour(item.OpeningTime),
		ClosingTime: services.To24Hour(item.ClosingTime),
		Description: item.Description,
		Days:        item.AvailableDays,
		Image:       item.Image,
	}
	if item.WifiStrength != nil {
		f.WifiStrength = *item.WifiStrength
	}
	return f
}

func kindParam(c *gin.Context) (models.UpdateKind, bool) {
	kind, ok := models.ParseUpdateKind(c.Param("kind"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Page not found")
	}
	return kind, ok
}

func actionPath(kind models.UpdateKind, id uint) string {
	k := strings.ToLower(kind.String())
	if id == 0 {
		return "/update/" + k
	}
	return fmt.Sprintf("/edit/%d/%s", id, k)
}

func (h *UpdateHandler) renderForm(c *gin.Context, code int, kind models.UpdateKind, form spotForm, errMsg string) {
	title := "Share a " + kind.String() + " spot"
	if form.ID > 0 {
		title = "Edit " + form.Name
	}
	data := gin.H{
		"Title":    title,
		"Kind":     kind,
		"IsWifi":   kind == models.KindWifi,
		"IsEdit":   form.ID > 0,
		"Action":   actionPath(kind, form.ID),
		"Form":     form,
		"Weekdays": models.WeekdayCodes,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	Render(c, code, "update/form.html", data)
}

// bindSpot validates the submitted form. On failure the returned message is
// meant for the user and the spot is zero.
func bindSpot(c *gin.Context, form *spotForm) (models.Spot, int, string) {
	var in updateForm
	err := c.ShouldBind(&in)

	form.Name = in.Name
	form.Address = in.Address
	form.OpeningTime = in.OpeningTime
	form.ClosingTime = in.ClosingTime
	form.Description = in.Description
	form.Days = services.ParseWeekdays(in.Days)
	form.WifiStrength = in.WifiStrength

	if err != nil {
		return models.Spot{}, 0, formError(err)
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.Spot{}, 0, "Name is required"
	}

	opening, err := services.To12Hour(in.OpeningTime)
	if err != nil {
		return models.Spot{}, 0, "Opening time must be in HH:MM format"
	}
	closing, err := services.To12Hour(in.ClosingTime)
	if err != nil {
		return models.Spot{}, 0, "Closing time must be in HH:MM format"
	}

	spot := models.Spot{
		Name:          strings.TrimSpace(in.Name),
		Address:       strings.TrimSpace(in.Address),
		OpeningTime:   opening,
		ClosingTime:   closing,
		Description:   strings.TrimSpace(in.Description),
		AvailableDays: form.Days,
	}
	return spot, in.WifiStrength, ""
}

// uploadError maps image store errors to a status and message
func uploadError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotImage):
		return http.StatusBadRequest, "Only image files can be uploaded"
	case errors.Is(err, services.ErrImageTooLarge):
		return http.StatusBadRequest, "Image must be smaller than 10MB"
	}
	return http.StatusInternalServerError, "Could not save the image"
}

// ShowChoose lets the user pick which kind of spot to share
func (h *UpdateHandler) ShowChoose(c *gin.Context) {
	Render(c, http.StatusOK, "update/choose.html", gin.H{"Title": "Share a spot", "Kinds": models.AllKinds})
}

func (h *UpdateHandler) ShowCreate(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, kind, spotForm{}, "")
}

func (h *UpdateHandler) Create(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)

	var form spotForm
	spot, strength, msg := bindSpot(c, &form)
	if msg != "" {
		h.renderForm(c, http.StatusBadRequest, kind, form, msg)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		h.renderForm(c, http.StatusBadRequest, kind, form, "Please choose an image")
		return
	}
	image, err := h.images.Save(file)
	if err != nil {
		code, msg := uploadError(err)
		if code >= 500 {
			h.log.Error("save image", zap.Error(err))
		}
		h.renderForm(c, code, kind, form, msg)
		return
	}
	spot.Image = image

	id, err := h.updates.Create(c.Request.Context(), kind, user.ID, spot, strength)
	if err != nil {
		_ = h.images.Delete(image)
		h.log.Error("create update", zap.String("kind", kind.String()), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not save your update")
		return
	}

	metrics.UpdateWrites.WithLabelValues(kind.String(), "create").Inc()
	h.feed.Invalidate()
	h.log.Info("update created", zap.String("kind", kind.String()), zap.Uint("id", id), zap.Uint("user_id", user.ID))

	c.Redirect(http.StatusFound, "/")
}

// owned loads the update addressed by the path and checks it belongs to the
// current user. It renders the error page itself when it returns false.
func (h *UpdateHandler) owned(c *gin.Context) (models.UpdateKind, *models.FeedItem, bool) {
	kind, ok := kindParam(c)
	if !ok {
		return "", nil, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Update not found")
		return "", nil, false
	}

	item, err := h.updates.Find(c.Request.Context(), kind, id)
	if errors.Is(err, repositories.ErrNotFound) {
		RenderError(c, http.StatusNotFound, "Update not found")
		return "", nil, false
	}
	if err != nil {
		h.log.Error("find update", zap.Uint("id", id), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Something went wrong, please try again later")
		return "", nil, false
	}

	if item.UserID != middleware.CurrentUser(c).ID {
		RenderError(c, http.StatusForbidden, "You can only change your own updates")
		return "", nil, false
	}
	return kind, item, true
}

func (h *UpdateHandler) ShowEdit(c *gin.Context) {
	kind, item, ok := h.owned(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, kind, formFromItem(item), "")
}

func (h *UpdateHandler) Edit(c *gin.Context) {
	kind, item, ok := h.owned(c)
	if !ok {
		return
	}

	form := spotForm{ID: item.ID, Image: item.Image}
	spot, strength, msg := bindSpot(c, &form)
	if msg != "" {
		h.renderForm(c, http.StatusBadRequest, kind, form, msg)
		return
	}

	// 没有上传新图片时沿用原图
	spot.Image = item.Image
	if file, err := c.FormFile("image"); err == nil {
		image, err := h.images.Save(file)
		if err != nil {
			code, msg := uploadError(err)
			if code >= 500 {
				h.log.Error("save image", zap.Error(err))
			}
			h.renderForm(c, code, kind, form, msg)
			return
		}
		spot.Image = image
	}

	if err := h.updates.Update(c.Request.Context(), kind, item.ID, spot, strength); err != nil {
		if spot.Image != item.Image {
			_ = h.images.Delete(spot.Image)
		}
		h.log.Error("edit update", zap.String("kind", kind.String()), zap.Uint("id", item.ID), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not save your update")
		return
	}

	if spot.Image != item.Image {
		if err := h.images.Delete(item.Image); err != nil {
			h.log.Warn("remove replaced image", zap.String("path", item.Image), zap.Error(err))
		}
	}

	metrics.UpdateWrites.WithLabelValues(kind.String(), "edit").Inc()
	h.feed.Invalidate()

	c.Redirect(http.StatusFound, "/")
}

func (h *UpdateHandler) Delete(c *gin.Context) {
	kind, item, ok := h.owned(c)
	if !ok {
		return
	}

	if err := h.updates.Delete(c.Request.Context(), kind, item.ID); err != nil {
		h.log.Error("delete update", zap.String("kind", kind.String()), zap.Uint("id", item.ID), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not delete your update")
		return
	}
	if err := h.images.Delete(item.Image); err != nil {
		h.log.Warn("remove image", zap.String("path", item.Image), zap.Error(err))
	}

	metrics.UpdateWrites.WithLabelValues(kind.String(), "delete").Inc()
	h.feed.Invalidate()

	c.Redirect(http.StatusFound, "/profile")
}

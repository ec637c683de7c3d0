package handlers

import (
	"errors"
	"net/http"
	"strings"

	"hangspot/internal/metrics"
	"hangspot/internal/middleware"
	"hangspot/internal/models"
	"hangspot/internal/repositories"
	"hangspot/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users repositories.UserRepository
	log   *zap.Logger
}

func NewAuthHandler(users repositories.UserRepository, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

type registerForm struct {
	Username string `form:"username" binding:"required,max=64"`
	Email    string `form:"email" binding:"required,email,max=255"`
	Password string `form:"password" binding:"required"`
}

type loginForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
	// checkbox posts "on"
	Remember string `form:"remember"`
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "auth/register.html", gin.H{"Title": "Register"})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		flashRedirect(c, flashError, formError(err), "/register")
		return
	}
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	ctx := c.Request.Context()

	// 先查邮箱再查用户名
	exists, err := h.users.ExistsByEmail(ctx, form.Email)
	if err != nil {
		h.fail(c, "check email", err)
		return
	}
	if exists {
		flashRedirect(c, flashError, "Email already exists, please look for another one", "/register")
		return
	}

	exists, err = h.users.ExistsByUsername(ctx, form.Username)
	if err != nil {
		h.fail(c, "check username", err)
		return
	}
	if exists {
		flashRedirect(c, flashError, "Username already exists, please look for another one", "/register")
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		h.fail(c, "hash password", err)
		return
	}

	user := models.User{Username: form.Username, Email: form.Email, Password: hash}
	if err := h.users.Create(ctx, &user); err != nil {
		h.fail(c, "create user", err)
		return
	}

	h.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	flashRedirect(c, flashSuccess, "Account created, you can log in now", "/login")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Title": "Login"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.Logins.WithLabelValues("invalid_form").Inc()
		flashRedirect(c, flashError, formError(err), "/login")
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.TrimSpace(form.Email))
	if errors.Is(err, repositories.ErrNotFound) {
		metrics.Logins.WithLabelValues("unknown_email").Inc()
		flashRedirect(c, flashError, "Invalid email", "/login")
		return
	}
	if err != nil {
		h.fail(c, "load user", err)
		return
	}

	if !utils.CheckPasswordHash(form.Password, user.Password) {
		metrics.Logins.WithLabelValues("wrong_password").Inc()
		flashRedirect(c, flashError, "Invalid password", "/login")
		return
	}

	remember := form.Remember != ""

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	session.Set(middleware.SessionRememberKey, remember)
	middleware.ApplyCookieLifetime(session, remember)
	if err := session.Save(); err != nil {
		h.fail(c, "save session", err)
		return
	}

	metrics.Logins.WithLabelValues("success").Inc()
	c.Redirect(http.StatusFound, "/profile")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) fail(c *gin.Context, op string, err error) {
	h.log.Error(op, zap.Error(err))
	RenderError(c, http.StatusInternalServerError, "Something went wrong, please try again later")
}

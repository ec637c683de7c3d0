package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hangspot/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	flashError   = "error"
	flashSuccess = "success"
)

// Render helper to inject common variables like 'current user' and flashes
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}

	// 读取后 flash 即被消费，必须在写响应体之前保存会话
	session := sessions.Default(c)
	obj["Errors"] = session.Flashes(flashError)
	obj["Messages"] = session.Flashes(flashSuccess)
	_ = session.Save()

	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// RenderError renders the shared error page
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Title": http.StatusText(code)})
}

// flashRedirect stores a one-shot message and redirects, like the form
// handlers in a classic server-rendered app.
func flashRedirect(c *gin.Context, category, message, location string) {
	session := sessions.Default(c)
	session.AddFlash(message, category)
	_ = session.Save()
	c.Redirect(http.StatusFound, location)
}

var fieldLabels = map[string]string{
	"Username":     "Username",
	"Email":        "Email",
	"Password":     "Password",
	"Name":         "Name",
	"Address":      "Address",
	"OpeningTime":  "Opening time",
	"ClosingTime":  "Closing time",
	"WifiStrength": "Wifi strength",
}

// formError turns a binding error into a message for the user
func formError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid form submission"
	}

	fe := verrs[0]
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Please enter a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", label)
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// backOr returns the Referer path when it points at this site
func backOr(c *gin.Context, fallback string) string {
	ref := c.GetHeader("Referer")
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request.Host) {
		return fallback
	}
	// "//host" 和 "/\host" 会被浏览器当作协议相对地址
	if u.Path == "" || u.Path[0] != '/' || strings.HasPrefix(u.Path, "//") || strings.HasPrefix(u.Path, `/\`) {
		return fallback
	}
	return u.RequestURI()
}

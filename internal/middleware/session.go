package middleware

import (
	"encoding/gob"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	SessionRememberKey = "remember"

	// RememberMaxAge 勾选"记住我"时会话保留 30 天
	RememberMaxAge = 30 * 24 * 60 * 60
)

func init() {
	// flash 以 []interface{} 形式存入 cookie，gob 需要先注册
	gob.Register([]interface{}{})
}

// SessionCookie sets the cookie lifetime for this request: 30 days when the
// user asked to be remembered, otherwise a browser-session cookie.
func SessionCookie() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		remember, _ := session.Get(SessionRememberKey).(bool)
		ApplyCookieLifetime(session, remember)
		c.Next()
	}
}

func ApplyCookieLifetime(session sessions.Session, remember bool) {
	maxAge := 0
	if remember {
		maxAge = RememberMaxAge
	}
	session.Options(sessions.Options{Path: "/", MaxAge: maxAge, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

package router

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hangspot/internal/config"
	"hangspot/internal/models"
	"hangspot/internal/testutil"
	"hangspot/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

type testApp struct {
	t         *testing.T
	conn      *gorm.DB
	server    *httptest.Server
	uploadDir string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conn := testutil.NewDB(t)
	static := t.TempDir()
	cfg := &config.Config{
		Env:           "test",
		SessionSecret: "test-secret",
		Upload: config.Upload{
			Dir:       filepath.Join(static, "images"),
			URLPrefix: "/static/images",
			MaxBytes:  10 << 20,
		},
		StaticDir: static,
		Cache:     config.Cache{Size: 16, TTL: time.Minute},
	}

	r, err := New(cfg, conn, zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testApp{t: t, conn: conn, server: srv, uploadDir: cfg.Upload.Dir}
}

// client keeps cookies and does not follow redirects
func (a *testApp) client() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) do(c *http.Client, req *http.Request) (*http.Response, string) {
	a.t.Helper()

	resp, err := c.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, string(body)
}

func (a *testApp) get(c *http.Client, path string) (*http.Response, string) {
	a.t.Helper()

	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(c, req)
}

func (a *testApp) postForm(c *http.Client, path string, form url.Values) *http.Response {
	a.t.Helper()

	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := a.do(c, req)
	return resp
}

func (a *testApp) postMultipart(c *http.Client, path string, fields url.Values, image []byte) (*http.Response, string) {
	a.t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(a.t, w.WriteField(key, v))
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "cafe.png")
		require.NoError(a.t, err)
		_, err = part.Write(image)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, w.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, &body)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return a.do(c, req)
}

// login creates an account directly in the database and signs in with it.
func (a *testApp) login(username string) (*http.Client, *models.User) {
	a.t.Helper()

	hash, err := utils.HashPassword("password")
	require.NoError(a.t, err)
	user := &models.User{Username: username, Email: username + "@example.com", Password: hash}
	require.NoError(a.t, a.conn.Create(user).Error)

	c := a.client()
	resp := a.postForm(c, "/login", url.Values{"email": {user.Email}, "password": {"password"}})
	require.Equal(a.t, http.StatusFound, resp.StatusCode)
	require.Equal(a.t, "/profile", resp.Header.Get("Location"))
	return c, user
}

func spotFields(name string) url.Values {
	return url.Values{
		"name":          {name},
		"address":       {"1 Market Street"},
		"opening_time":  {"00:15"},
		"closing_time":  {"12:00"},
		"description":   {"**Fast** and quiet"},
		"days":          {"WED", "MON"},
		"wifi_strength": {"40"},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.client()

	resp, body := app.get(c, "/register")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="username"`)

	form := url.Values{"username": {"alice"}, "email": {"alice@example.com"}, "password": {"secret"}}
	resp = app.postForm(c, "/register", form)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body = app.get(c, "/login")
	assert.Contains(t, body, "Account created")

	var stored models.User
	require.NoError(t, app.conn.Where("email = ?", "alice@example.com").First(&stored).Error)
	assert.NotEqual(t, "secret", stored.Password)

	// 邮箱优先于用户名检查
	resp = app.postForm(c, "/register", form)
	assert.Equal(t, "/register", resp.Header.Get("Location"))
	_, body = app.get(c, "/register")
	assert.Contains(t, body, "Email already exists, please look for another one")

	resp = app.postForm(c, "/register", url.Values{"username": {"alice"}, "email": {"other@example.com"}, "password": {"secret"}})
	assert.Equal(t, "/register", resp.Header.Get("Location"))
	_, body = app.get(c, "/register")
	assert.Contains(t, body, "Username already exists, please look for another one")

	app.postForm(c, "/register", url.Values{"username": {"bob"}, "password": {"secret"}})
	_, body = app.get(c, "/register")
	assert.Contains(t, body, "Email is required")

	resp = app.postForm(c, "/login", url.Values{"email": {"nobody@example.com"}, "password": {"secret"}})
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	_, body = app.get(c, "/login")
	assert.Contains(t, body, "Invalid email")

	resp = app.postForm(c, "/login", url.Values{"email": {"alice@example.com"}, "password": {"wrong"}})
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	_, body = app.get(c, "/login")
	assert.Contains(t, body, "Invalid password")

	resp = app.postForm(c, "/login", url.Values{"email": {"alice@example.com"}, "password": {"secret"}, "remember": {"on"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile", resp.Header.Get("Location"))

	var session *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionName {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, 30*24*60*60, session.MaxAge)

	resp, body = app.get(c, "/profile")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alice@example.com")

	resp, _ = app.get(c, "/logout")
	assert.Equal(t, "/", resp.Header.Get("Location"))
	resp, _ = app.get(c, "/profile")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginWithoutRememberUsesBrowserSession(t *testing.T) {
	app := newTestApp(t)
	hash, err := utils.HashPassword("password")
	require.NoError(t, err)
	require.NoError(t, app.conn.Create(&models.User{Username: "carol", Email: "carol@example.com", Password: hash}).Error)

	resp := app.postForm(app.client(), "/login", url.Values{"email": {"carol@example.com"}, "password": {"password"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	for _, ck := range resp.Cookies() {
		if ck.Name == sessionName {
			assert.Equal(t, 0, ck.MaxAge)
			assert.True(t, ck.Expires.IsZero())
		}
	}
}

func TestLoginRequired(t *testing.T) {
	app := newTestApp(t)
	c := app.client()

	for _, path := range []string{"/profile", "/logout", "/update/wifi", "/edit/1/wifi", "/delete/1/wifi", "/like/1/wifi"} {
		resp, _ := app.get(c, path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestUnknownKindIsNotFound(t *testing.T) {
	app := newTestApp(t)
	c, _ := app.login("dave")

	for _, path := range []string{"/coffee", "/update/coffee", "/edit/1/coffee", "/like/1/coffee", "/edit/abc/wifi"} {
		resp, _ := app.get(c, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	resp, _ := app.get(c, "/update/WIFI")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateEditDeleteUpdate(t *testing.T) {
	app := newTestApp(t)
	owner, user := app.login("erin")

	resp, body := app.get(owner, "/update")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/update/hangout"`)

	resp, _ = app.postMultipart(owner, "/update/wifi", spotFields("Cafe Nero"), pngBytes)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var wifi models.WifiUpdate
	require.NoError(t, app.conn.First(&wifi).Error)
	assert.Equal(t, user.ID, wifi.UserID)
	assert.Equal(t, "12:15AM", wifi.OpeningTime)
	assert.Equal(t, "12:00PM", wifi.ClosingTime)
	assert.Equal(t, models.Weekdays{"MON", "WED"}, wifi.AvailableDays)
	assert.Equal(t, 40, wifi.WifiStrength)
	require.True(t, strings.HasPrefix(wifi.Image, "/static/images/"), wifi.Image)

	_, err := os.Stat(filepath.Join(app.uploadDir, filepath.Base(wifi.Image)))
	require.NoError(t, err)
	resp, _ = app.get(owner, wifi.Image)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = app.get(owner, "/")
	assert.Contains(t, body, "Cafe Nero")
	assert.Contains(t, body, "12:15AM - 12:00PM")
	assert.Contains(t, body, "MON, WED")
	assert.Contains(t, body, "<strong>Fast</strong>")
	assert.Contains(t, body, "by erin")

	// 表单回填使用 24 小时制
	_, body = app.get(owner, "/edit/1/wifi")
	assert.Contains(t, body, `value="00:15"`)
	assert.Contains(t, body, `value="12:00"`)

	fields := spotFields("Cafe Nero Upstairs")
	fields.Set("opening_time", "13:05")
	resp, _ = app.postMultipart(owner, "/edit/1/Wifi", fields, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var edited models.WifiUpdate
	require.NoError(t, app.conn.First(&edited, wifi.ID).Error)
	assert.Equal(t, "Cafe Nero Upstairs", edited.Name)
	assert.Equal(t, "1:05PM", edited.OpeningTime)
	assert.Equal(t, wifi.Image, edited.Image)

	var count int64
	app.conn.Model(&models.WifiUpdate{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// 上传新图片会替换路径并删除旧文件
	resp, _ = app.postMultipart(owner, "/edit/1/wifi", fields, pngBytes)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.NoError(t, app.conn.First(&edited, wifi.ID).Error)
	assert.NotEqual(t, wifi.Image, edited.Image)
	_, err = os.Stat(filepath.Join(app.uploadDir, filepath.Base(wifi.Image)))
	assert.True(t, os.IsNotExist(err))

	other, _ := app.login("frank")
	resp, _ = app.get(other, "/edit/1/wifi")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = app.postMultipart(other, "/edit/1/wifi", spotFields("Hijacked"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = app.get(other, "/delete/1/wifi")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = app.get(other, "/like/1/wifi")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = app.get(owner, "/delete/1/wifi")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile", resp.Header.Get("Location"))

	app.conn.Model(&models.WifiUpdate{}).Count(&count)
	assert.Equal(t, int64(0), count)
	app.conn.Model(&models.Like{}).Count(&count)
	assert.Equal(t, int64(0), count)

	resp, _ = app.get(owner, "/delete/1/wifi")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateUpdateValidation(t *testing.T) {
	app := newTestApp(t)
	c, _ := app.login("gina")

	fields := spotFields("")
	resp, body := app.postMultipart(c, "/update/hangout", fields, pngBytes)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Name is required")

	fields = spotFields("Park")
	fields.Set("opening_time", "25:99")
	resp, body = app.postMultipart(c, "/update/hangout", fields, pngBytes)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Opening time must be in HH:MM format")
	assert.Contains(t, body, `value="Park"`)

	resp, body = app.postMultipart(c, "/update/hangout", spotFields("Park"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Please choose an image")

	resp, body = app.postMultipart(c, "/update/hangout", spotFields("Park"), []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Only image files can be uploaded")

	var count int64
	app.conn.Model(&models.HangoutUpdate{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestLikeToggle(t *testing.T) {
	app := newTestApp(t)
	author := testutil.CreateUser(t, app.conn, "henry")
	hangout := models.HangoutUpdate{Spot: models.Spot{Name: "Rooftop"}, UserID: author.ID}
	require.NoError(t, app.conn.Create(&hangout).Error)

	c, _ := app.login("ivy")

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/like/1/hangout", nil)
	require.NoError(t, err)
	req.Header.Set("Referer", app.server.URL+"/hangout?page=1")
	resp, _ := app.do(c, req)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/hangout?page=1", resp.Header.Get("Location"))

	var count int64
	app.conn.Model(&models.Like{}).Where("hangout_id = ?", hangout.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	_, body := app.get(c, "/hangout")
	assert.Contains(t, body, "like liked")

	req, err = http.NewRequest(http.MethodPost, app.server.URL+"/like/1/hangout", nil)
	require.NoError(t, err)
	req.Header.Set("Referer", "http://evil.example/phish")
	resp, _ = app.do(c, req)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	app.conn.Model(&models.Like{}).Where("hangout_id = ?", hangout.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	resp, _ = app.get(c, "/like/99/hangout")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeedPagination(t *testing.T) {
	app := newTestApp(t)
	author := testutil.CreateUser(t, app.conn, "jack")
	for i := 1; i <= 6; i++ {
		w := models.WifiUpdate{Spot: models.Spot{Name: "Spot-" + string(rune('A'+i-1))}, UserID: author.ID}
		require.NoError(t, app.conn.Create(&w).Error)
	}
	c := app.client()

	resp, body := app.get(c, "/wifi")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Spot-A")
	assert.Contains(t, body, "Spot-E")
	assert.NotContains(t, body, "Spot-F")
	assert.Contains(t, body, "Page 1 of 2")

	_, body = app.get(c, "/wifi?page=2")
	assert.Contains(t, body, "Spot-F")
	assert.NotContains(t, body, "Spot-A")

	resp, body = app.get(c, "/wifi?page=3689348814741910324")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Nothing here yet.")
	assert.NotContains(t, body, "Spot-A")

	_, body = app.get(c, "/wifi?page=abc")
	assert.Contains(t, body, "Spot-A")

	resp, body = app.get(c, "/wifi?page=9")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Nothing here yet.")

	_, body = app.get(c, "/hangout")
	assert.Contains(t, body, "Nothing here yet.")

	_, body = app.get(c, "/")
	assert.Contains(t, body, "Spot-A")
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	c := app.client()

	resp, body := app.get(c, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}

func TestRobotsTxt(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(app.client(), "/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Disallow: /profile")
}

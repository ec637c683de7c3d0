package router

import (
	"strings"

	"hangspot/internal/config"
	"hangspot/internal/handlers"
	"hangspot/internal/middleware"
	"hangspot/internal/repositories"
	"hangspot/internal/services"
	"hangspot/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "hangspot_session"

// New wires repositories, services and handlers onto a gin engine.
func New(cfg *config.Config, conn *gorm.DB, log *zap.Logger) (*gin.Engine, error) {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	r.MaxMultipartMemory = cfg.Upload.MaxBytes

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions(sessionName, store), middleware.SessionCookie())

	render, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	r.HTMLRender = render

	// Static Assets
	r.Static("/static", cfg.StaticDir)
	if !strings.HasPrefix(cfg.Upload.URLPrefix, "/static/") {
		r.Static(cfg.Upload.URLPrefix, cfg.Upload.Dir)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	users := repositories.NewGormUserRepository(conn)
	updates := repositories.NewGormUpdateRepository(conn)
	likes := repositories.NewGormLikeRepository(conn)

	cache, err := utils.NewCache(cfg.Cache.Size)
	if err != nil {
		return nil, err
	}
	feed := services.NewFeedService(updates, likes, cache, cfg.Cache.TTL)

	images, err := services.NewLocalImageStore(cfg.Upload.Dir, cfg.Upload.URLPrefix, cfg.Upload.MaxBytes)
	if err != nil {
		return nil, err
	}

	// Middleware
	r.Use(middleware.LoadUser(users))

	RegisterRoutes(r, Handlers{
		Auth:   handlers.NewAuthHandler(users, log),
		Feed:   handlers.NewFeedHandler(feed, log),
		Update: handlers.NewUpdateHandler(updates, images, feed, log),
		Like:   handlers.NewLikeHandler(likes, feed, log),
		User:   handlers.NewUserHandler(feed, log),
		SEO:    handlers.NewSEOHandler(),
	})

	return r, nil
}

type Handlers struct {
	Auth   *handlers.AuthHandler
	Feed   *handlers.FeedHandler
	Update *handlers.UpdateHandler
	Like   *handlers.LikeHandler
	User   *handlers.UserHandler
	SEO    *handlers.SEOHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	// 公共路由 (Public Routes)
	r.GET("/", h.Feed.Home)                 // 首页 - 全部分享
	r.GET("/register", h.Auth.ShowRegister) // 注册页面
	r.POST("/register", h.Auth.Register)    // 提交注册
	r.GET("/login", h.Auth.ShowLogin)       // 登录页面
	r.POST("/login", h.Auth.Login)          // 提交登录
	r.GET("/update", h.Update.ShowChoose)   // 选择分享类型
	r.GET("/robots.txt", h.SEO.RobotsTxt)   // 爬虫规则
	r.GET("/:kind", h.Feed.ListByKind)      // /wifi 或 /hangout

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/logout", h.Auth.Logout)   // 退出登录
		authorized.GET("/profile", h.User.Profile) // 我的分享

		authorized.GET("/update/:kind", h.Update.ShowCreate) // 发布页面
		authorized.POST("/update/:kind", h.Update.Create)    // 提交发布
		authorized.GET("/edit/:id/:kind", h.Update.ShowEdit) // 编辑页面
		authorized.POST("/edit/:id/:kind", h.Update.Edit)    // 提交编辑
		authorized.GET("/delete/:id/:kind", h.Update.Delete) // 删除

		authorized.GET("/like/:id/:kind", h.Like.Toggle) // 点赞/取消
		authorized.POST("/like/:id/:kind", h.Like.Toggle)
	}
}

package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"folio/admin"
	"folio/analytics"
	"folio/backoffice"
	"folio/blog"
	"folio/cache"
	"folio/common"
	"folio/config"
	"folio/content"
	"folio/database"
	"folio/email"
	"folio/site"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db := common.ConnectDb(cfg)
	if db == nil {
		log.Fatal("Failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}

	router := gin.Default()
	router.Use(common.RequestID())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})
	router.Use(sessions.Sessions("folio-session", store))

	pageCache := cache.New(cfg.PageCacheDir, cfg.PageCacheTTL)
	if err := pageCache.Sweep(); err != nil {
		log.Printf("Failed to sweep page cache: %v", err)
	}

	contentService := content.NewService(db, content.Options{
		Invalidator:    pageCache,
		MaxThreadDepth: cfg.MaxThreadDepth,
	})

	mailer := email.NewEmailService(cfg.SMTP, cfg.ContactInbox)
	if !mailer.Configured() {
		log.Println("SMTP is not configured, contact notifications will fail")
	}

	analyticsModule := analytics.NewAnalyticsModule(db)
	if analyticsModule != nil {
		analyticsModule.RegisterRoutes(router)
	}

	adminModule := admin.NewAdminModule(db, contentService, cfg)
	adminModule.RegisterRoutes(router)

	limiter := blog.NewRateLimiter(cfg.CommentRateEvery, cfg.CommentRateBurst)
	blogModule := blog.NewBlogModule(db, contentService, pageCache, limiter, analyticsModule)
	blogModule.RegisterRoutes(router)

	backofficeModule := backoffice.NewBackofficeModule(db, pageCache)
	backofficeModule.RegisterRoutes(router)

	siteModule := site.NewSiteModule(db, contentService, mailer, cfg.Domain)
	siteModule.RegisterRoutes(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Printf("Starting server on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

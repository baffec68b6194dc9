package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"

	"folio/admin"
	"folio/common"
	"folio/config"
	"folio/content"
	"folio/database"
	"folio/site"
	"folio/store"
)

const sessionMaxAge = 86400 // 24h

func main() {
	cfg := config.Load()

	db := common.ConnectDb(cfg.SQLitePath)
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

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	// Sessions live in the database so logins survive a redeploy; the
	// store reaps expired rows in the background.
	sessionStore := gormsessions.NewStore(db, true, []byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
	})
	router.Use(sessions.Sessions("folio-session", sessionStore))

	router.LoadHTMLGlob("*/views/*.html")
	router.Static("/public", "./public")

	st := store.New(db)

	adminModule := admin.NewAdminModule(cfg)
	adminModule.RegisterRoutes(router)

	contentModule := content.NewContentModule(st)
	contentModule.RegisterRoutes(router, adminModule.RequireAuth)

	siteModule := site.NewSiteModule(st)
	siteModule.RegisterRoutes(router)

	log.Printf("Starting server on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

package main

import (
	"context"
	"log"
	"time"

	"fortmix-erp/internal/ai"
	"fortmix-erp/internal/auth"
	"fortmix-erp/internal/config"
	"fortmix-erp/internal/database"
	"fortmix-erp/internal/handlers"
	"fortmix-erp/internal/middleware"
	"fortmix-erp/internal/models"
	"fortmix-erp/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	st := store.NewGormStore(db, store.Options{StrictStock: cfg.StrictStock, Location: cfg.Timezone})
	if err := seedOwner(context.Background(), st, cfg); err != nil {
		log.Fatal("Failed to seed owner account: ", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	// --- Optional assistant ---
	var assistant handlers.Assistant
	if cfg.GeminiAPIKey != "" {
		assistant = ai.NewAgent(st, cfg.GeminiAPIKey, cfg.Timezone)
		log.Println("🤖 Assistant enabled")
	} else {
		log.Println("🔒 Assistant disabled (GEMINI_API_KEY not set)")
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderXRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(r, handlers.New(st, tokens, assistant, cfg.Timezone), tokens)

	// --- Serve the React build ---
	r.Static("/assets", "./web/assets")
	r.StaticFile("/favicon.ico", "./web/favicon.ico")

	// SPA Catch-All: unknown paths get index.html so the client router
	// can handle them.
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	log.Println("🚀 Server starting on :" + cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("Server failed to start: ", err)
	}
}

// seedOwner creates the first Owner account on an empty database so someone
// can log in and create the rest of the staff.
func seedOwner(ctx context.Context, st store.Store, cfg *config.Config) error {
	n, err := st.CountUsers(ctx)
	if err != nil || n > 0 {
		return err
	}
	if cfg.AdminPassword == "" {
		log.Println("⚠️ No users yet. Set ADMIN_USERNAME and ADMIN_PASSWORD to create the owner account.")
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	owner := &models.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Name:         cfg.AdminName,
		Role:         models.RoleOwner,
	}
	if err := st.CreateUser(ctx, 0, owner); err != nil {
		return err
	}
	log.Printf("👤 Owner account %q created", owner.Username)
	return nil
}

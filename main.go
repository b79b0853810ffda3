package main

import (
	"context"
	"net/http"

	"mealconnect-api/config"
	"mealconnect-api/handlers"
	"mealconnect-api/lifecycle"
	"mealconnect-api/routes"
	"mealconnect-api/store"
	"mealconnect-api/uploads"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	log, err := config.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := config.ConnectMongo(context.Background(), cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := store.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatal("failed to ensure indexes", zap.Error(err))
	}
	log.Info("database connected", zap.String("db", cfg.MongoDB))

	uploadStore, err := uploads.New(cfg.UploadDir)
	if err != nil {
		log.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	menuItems := store.NewMenuItems(db)
	pickups := store.NewPickups(db)

	h := &handlers.Handler{
		Log:          log,
		JWTSecret:    cfg.JWTSecret,
		Users:        store.NewUsers(db),
		Restaurants:  store.NewRestaurants(db),
		MenuItems:    menuItems,
		Pickups:      pickups,
		Donations:    store.NewDonations(db),
		Partnerships: store.NewPartnerships(db),
		Lifecycle:    lifecycle.New(pickups, menuItems, log),
		Uploads:      uploadStore,
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Static serving of uploaded images and proofs
	r.Static("/uploads", uploadStore.Dir())

	routes.SetupRoutes(r, h)

	log.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

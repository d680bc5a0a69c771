package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"geoattend-backend/internal/directory"
	"geoattend-backend/internal/identity"
	"geoattend-backend/internal/platform/auth"
	"geoattend-backend/internal/platform/config"
	"geoattend-backend/internal/platform/db"
	"geoattend-backend/internal/session"
	"geoattend-backend/internal/zone"
)

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(err)
	}

	log.Printf("[INFO] mode:%s\n", cfg.Mode)

	registry, err := zone.NewRegistry(cfg.Zones)
	if err != nil {
		log.Fatalf("[ERROR] zone registry: %v", err)
	}
	log.Printf("[INFO] %d geofence zones configured", len(registry.All()))

	tz, err := time.LoadLocation(cfg.Session.Timezone)
	if err != nil {
		log.Fatalf("[ERROR] session timezone %q: %v", cfg.Session.Timezone, err)
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gate := identity.NewHTTPGate(
		cfg.Identity.URL,
		cfg.Identity.DistanceThreshold,
		time.Duration(cfg.Identity.TimeoutSeconds)*time.Second,
	)

	hub := session.NewHub(registry, gate, session.Config{
		DeadlineHour:   cfg.Session.CheckoutHour,
		TZ:             tz,
		LocationMaxAge: time.Duration(cfg.Session.LocationMaxAgeSeconds) * time.Second,
	})

	authSvc := auth.NewService(conn, []byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS is only needed while the frontend runs on its own port.
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// /api/v1
	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, authSvc)

	dirSvc := directory.NewService(directory.NewStore(conn))

	authed := api.Group("", auth.RequireAuth(authSvc.Secret()))
	directory.RegisterRoutes(authed, dirSvc)
	session.RegisterRoutes(authed, hub)

	admin := authed.Group("", auth.RequireRole("admin"))
	directory.RegisterAdminRoutes(admin, dirSvc)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}

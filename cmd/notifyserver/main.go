package main

import (
	"log"
	"net/http"

	_ "co2plus/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"co2plus/internal/auth"
	"co2plus/internal/cache"
	"co2plus/internal/config"
	"co2plus/internal/db"
	"co2plus/internal/handler"
	"co2plus/internal/model"
	"co2plus/internal/repository"
	"co2plus/internal/router"
	"co2plus/internal/service"
)

func main() {
	cfg := config.Load()

	e := echo.New()

	gormDB, err := db.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.Notification{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	notificationRepo := repository.NewNotificationRepository(gormDB)
	notificationService := service.NewNotificationService(notificationRepo, cacheClient)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	tokenService := auth.NewTokenService(cfg.JWTSecret)

	router.RegisterNotifications(e, tokenService, notificationHandler)

	addr := ":" + cfg.NotificationPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}

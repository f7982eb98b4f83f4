package main

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"co2plus/docs"

	"co2plus/internal/auth"
	"co2plus/internal/config"
	"co2plus/internal/db"
	"co2plus/internal/handler"
	"co2plus/internal/mailer"
	"co2plus/internal/model"
	"co2plus/internal/notifier"
	"co2plus/internal/repository"
	"co2plus/internal/router"
	"co2plus/internal/service"
)

// @title CO2+ Auth Service API
// @version 1.0
// @description Authentication, OTP verification and user approval workflow for the CO2+ platform.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()

	gormDB, err := db.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Token{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)
	tokenRepo := repository.NewTokenRepository(gormDB)

	// Auth components
	tokenService := auth.NewTokenService(cfg.JWTSecret)
	events := notifier.New(cfg.NotificationURL)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Println("SMTP_HOST not set, using log-only OTP delivery")
		mail = mailer.LogMailer{}
	}

	// Services
	authService := service.NewAuthService(userRepo, roleRepo, tokenRepo, tokenService, mail, events)
	userService := service.NewUserService(userRepo, events)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	router.RegisterAuth(e, tokenService, authHandler, userHandler)

	addr := ":" + cfg.AuthPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}

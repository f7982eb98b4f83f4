package main

import (
	"context"
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"co2plus/internal/config"
	"co2plus/internal/db"
	"co2plus/internal/model"
	"co2plus/internal/repository"
)

// Seeds the roles reference data and one verified admin account so a fresh
// deployment has an actor able to approve users.
func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.Role{}, &model.User{}, &model.Token{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	adminRole, err := ensureRole(ctx, roleRepo, model.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to seed ADMIN role: %v", err)
	}
	if _, err := ensureRole(ctx, roleRepo, model.RoleUser); err != nil {
		log.Fatalf("Failed to seed USER role: %v", err)
	}
	log.Println("Roles seeded")

	adminEmail := getEnv("ADMIN_EMAIL", "admin@co2plus.local")
	adminPassword := getEnv("ADMIN_PASSWORD", "ChangeMe1!")

	if _, err := userRepo.FindByEmail(ctx, adminEmail); err == nil {
		log.Printf("Admin account %s already present, nothing to do", adminEmail)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to check admin account: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), 12)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin := &model.User{
		Username:     "admin",
		Email:        adminEmail,
		PasswordHash: string(hashed),
		RoleID:       adminRole.ID,
		Verified:     true,
		Status:       model.StatusActive,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("Seed completed: admin account %s (id=%d, u_id=%s)", adminEmail, admin.ID, admin.UID)
}

func ensureRole(ctx context.Context, repo repository.RoleRepository, name string) (*model.Role, error) {
	role, err := repo.FindByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = &model.Role{Name: name}
	if err := repo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

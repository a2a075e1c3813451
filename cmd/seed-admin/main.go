// seed-admin creates or updates the platform superuser.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	ADMIN_EMAIL=admin@intelectus.local ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/PedroPPVM/Intelectus-Api/utils"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail = "admin@intelectus.local"
	defaultAdminName  = "Intelectus Admin"
)

func main() {
	_ = godotenv.Load()

	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	if email == "" {
		email = defaultAdminEmail
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx = utils.SetUserNameInContext(ctx, "Seed")
	ctx = utils.SetIsSuperuserInContext(ctx, true)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err = db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		user := models.User{
			ID:             models.NewId(),
			Email:          email,
			FullName:       defaultAdminName,
			HashedPassword: string(hashed),
			IsActive:       utils.NewTrue(),
			IsSuperuser:    utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create superuser: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("superuser created:", email)
		return
	}

	updates := map[string]interface{}{
		"hashed_password": string(hashed),
		"is_active":       true,
		"is_superuser":    true,
	}
	if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update superuser: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("superuser updated:", email)
}

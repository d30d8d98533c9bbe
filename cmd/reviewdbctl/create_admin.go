package main

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/database"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/spf13/cobra"
)

func newCreateAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user from ADMIN_USERNAME and ADMIN_EMAIL",
		Run: func(cmd *cobra.Command, args []string) {
			adminUsername := os.Getenv("ADMIN_USERNAME")
			adminEmail := os.Getenv("ADMIN_EMAIL")

			if adminUsername == "" || adminEmail == "" {
				log.Fatal("Missing environment variables: ADMIN_USERNAME, ADMIN_EMAIL")
			}

			var admin models.User
			result := database.DB.Where("email = ?", adminEmail).First(&admin)

			if result.Error == nil {
				log.Println("Admin user already exists:", admin.Username)
				log.Println("  Email:", admin.Email)
				return
			}

			admin = models.User{
				ID:                   uuid.New(),
				Username:             adminUsername,
				Email:                adminEmail,
				Role:                 models.RoleAdmin,
				Superuser:            true,
				ConfirmationCodeHash: models.NoConfirmationCode,
			}

			if err := database.DB.Create(&admin).Error; err != nil {
				log.Fatal("Failed to create admin:", err)
			}

			log.Println("Admin user created successfully")
			log.Println("  Username:", admin.Username)
			log.Println("  Email:", admin.Email)
			log.Println("Use /auth/signup with this pair to receive a confirmation code")
		},
	}
}

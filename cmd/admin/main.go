// Package main provides admin role management for CollegeConnect accounts.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"collegeconnect/internal/config"
	"collegeconnect/internal/database"
	"collegeconnect/internal/models"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go promote <user_id|email>   - Grant the admin role")
		fmt.Println("  go run ./cmd/admin/main.go demote <user_id|email>    - Revert to student")
		fmt.Println("  go run ./cmd/admin/main.go reactivate <user_id|email> - Restore a deactivated account")
		fmt.Println("  go run ./cmd/admin/main.go list-admins               - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	command := os.Args[1]
	if command == "list-admins" {
		listAdmins(db)
		return
	}
	if len(os.Args) < 3 {
		fmt.Printf("Usage: go run ./cmd/admin/main.go %s <user_id|email>\n", command)
		os.Exit(1)
	}
	user := findUser(db, os.Args[2])

	switch command {
	case "promote":
		setRole(db, user, models.RoleAdmin)
	case "demote":
		setRole(db, user, models.RoleStudent)
	case "reactivate":
		if user.IsActive {
			fmt.Printf("%s (ID: %d) is already active\n", user.Email, user.ID)
			return
		}
		if err := db.Model(user).Update("is_active", true).Error; err != nil {
			log.Fatalf("Failed to reactivate user: %v", err)
		}
		fmt.Printf("✅ Reactivated %s (ID: %d)\n", user.Email, user.ID)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func findUser(db *gorm.DB, ref string) *models.User {
	var user models.User
	query := db.Where("id = ?", ref)
	if strings.Contains(ref, "@") {
		query = db.Where("email = ?", strings.ToLower(strings.TrimSpace(ref)))
	}
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User %s not found\n", ref)
		} else {
			log.Printf("Database error: %v", err)
		}
		os.Exit(1)
	}
	return &user
}

func setRole(db *gorm.DB, user *models.User, role models.UserRole) {
	if user.Role == role {
		fmt.Printf("%s (ID: %d) already has role %s\n", user.Email, user.ID, role)
		return
	}
	if err := db.Model(user).Update("role", role).Error; err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}
	fmt.Printf("✅ %s (ID: %d) is now %s\n", user.Email, user.ID, role)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("role = ?", models.RoleAdmin).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s | College: %s\n", admin.ID, admin.Name, admin.Email, admin.College)
	}
	fmt.Println("─────────────────────────────────────")
}

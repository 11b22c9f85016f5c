// Command main seeds a CollegeConnect database from a named preset.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"collegeconnect/internal/config"
	"collegeconnect/internal/database"
	"collegeconnect/internal/seed"
)

func main() {
	preset := flag.String("preset", "small", "Preset to apply")
	presetsPath := flag.String("presets", "seed.yml", "YAML file with extra presets")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash passwords with the minimum bcrypt cost")
	randSeed := flag.Int64("rand", 0, "Random seed for reproducible data (0 = random)")
	list := flag.Bool("list", false, "List available presets and exit")
	flag.Parse()

	presets, err := seed.LoadPresets(*presetsPath)
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}
	if *list {
		log.Printf("Available presets: %s", strings.Join(seed.PresetNames(presets), ", "))
		return
	}

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Preset: %s, clean=%v\n", *preset, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sum, err := seed.Run(context.Background(), db, presets, *preset, *shouldClean, seed.Options{
		SkipBcrypt: *fast,
		RandSeed:   *randSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d posts, %d comments, %d events, %d teams, %d projects.",
		sum.Users, sum.Posts, sum.Comments, sum.Events, sum.Teams, sum.Projects)
	log.Printf("📧 All test users have the password: %s (try %s)", seed.DefaultPassword, seed.DemoEmail)
}

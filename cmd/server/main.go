// Command main is the entry point for the CollegeConnect API server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collegeconnect/internal/bootstrap"
	"collegeconnect/internal/config"
	"collegeconnect/internal/server"
)

var version = "dev"

// @title CollegeConnect API
// @version 1.0
// @description College social network API: forum posts, threaded comments, votes, events, teams, projects and notifications
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@collegeconnect.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	seedPreset := flag.String("seed", "", "Seed this preset when the database has no posts")
	presetsPath := flag.String("presets", "seed.yml", "Seed presets file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		ServiceName: "collegeconnect-api",
		Version:     version,
		SeedPreset:  *seedPreset,
		PresetsPath: *presetsPath,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, rt.DB, rt.Redis)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := rt.ShutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

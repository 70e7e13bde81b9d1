package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/cache"
	"github.com/ArowuTest/marketplace-backend/internal/config"
	mongorepo "github.com/ArowuTest/marketplace-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/marketplace-backend/internal/services"
	"github.com/ArowuTest/marketplace-backend/pkg/jwt"
	"github.com/ArowuTest/marketplace-backend/pkg/mongodb"
	"github.com/sirupsen/logrus"
)

// seed-admin creates the admin portal account, or resets its password when
// the account already exists.
//
//	go run ./cmd/seed-admin -email admin@example.com -password '...'
func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email (ADMIN_EMAIL)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (ADMIN_PASSWORD)")
	firstName := flag.String("first-name", "Admin", "admin first name")
	lastName := flag.String("last-name", "", "admin last name")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *email == "" || *password == "" {
		logger.Fatal("email and password are required")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Store.Driver != "mongodb" {
		logger.Fatal("seed-admin only supports the mongodb store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.ConnectTimeout)
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("Failed to ensure indexes: %v", err)
	}

	auth := services.NewAuthService(
		mongorepo.NewSellerRepository(db),
		mongorepo.NewAdminUserRepository(db),
		jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn),
		cache.NewMemoryRevocationStore(),
		logger,
	)

	admin, created, err := auth.EnsureAdmin(ctx, *email, *password, *firstName, *lastName)
	if err != nil {
		logger.Fatalf("Failed to seed admin: %v", err)
	}
	entry := logger.WithField("email", admin.Email)
	if created {
		entry.Info("Admin user created")
	} else {
		entry.Info("Admin password reset")
	}
}

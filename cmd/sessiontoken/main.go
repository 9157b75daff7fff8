// Command sessiontoken mints an access token for an existing account. Sign-in itself is owned by
// the identity front end; this tool is for operators and local testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/trust-erp-api/internal/repository"
	"github.com/noah-isme/trust-erp-api/internal/service"
	"github.com/noah-isme/trust-erp-api/pkg/config"
	"github.com/noah-isme/trust-erp-api/pkg/database"
	"github.com/noah-isme/trust-erp-api/pkg/logger"
)

func main() {
	email := flag.String("email", "", "account email")
	userID := flag.String("user", "", "account id (alternative to -email)")
	flag.Parse()

	if *email == "" && *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: sessiontoken -email <email> | -user <id>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database, "trust-erp-sessiontoken")
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	sessions := service.NewSessionService(users, nil, logr, service.SessionConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	lookup := users.FindByID
	key := *userID
	if *email != "" {
		lookup = users.FindByEmail
		key = *email
	}
	user, err := lookup(ctx, key)
	if err != nil {
		logr.Fatal("account not found", zap.String("key", key), zap.Error(err))
	}
	if !user.Active {
		logr.Fatal("account is inactive", zap.String("user_id", user.ID))
	}

	issued, err := sessions.Issue(user)
	if err != nil {
		logr.Fatal("failed to issue token", zap.Error(err))
	}
	fmt.Println(issued.AccessToken)
}

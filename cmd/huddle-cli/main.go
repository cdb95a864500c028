package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/huddle-chat/huddle/internal/common/config"
	"github.com/huddle-chat/huddle/internal/identity"
	"github.com/huddle-chat/huddle/internal/infra/cache"
	"github.com/huddle-chat/huddle/internal/infra/db"
	"github.com/huddle-chat/huddle/internal/infra/migrations"
	"github.com/huddle-chat/huddle/internal/ratelimit"
	"github.com/huddle-chat/huddle/internal/workspaces"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env")

	if len(os.Args) < 2 {
		printUsage()
		return nil
	}

	switch os.Args[1] {
	case "clear-ratelimit":
		clearCmd := flag.NewFlagSet("clear-ratelimit", flag.ExitOnError)
		clearAll := clearCmd.Bool("all", false, "clear all rate limits")
		clearKey := clearCmd.String("key", "", "clear specific rate limit key")
		if err := clearCmd.Parse(os.Args[2:]); err != nil {
			return err
		}
		return handleClearRateLimit(*clearAll, *clearKey)
	case "seed":
		seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
		workspaceID := seedCmd.String("workspace", "dev-workspace", "workspace id to seed")
		workspaceName := seedCmd.String("name", "Dev Workspace", "workspace display name")
		if err := seedCmd.Parse(os.Args[2:]); err != nil {
			return err
		}
		return handleSeed(*workspaceID, *workspaceName, seedCmd.Args())
	case "issue-token":
		tokenCmd := flag.NewFlagSet("issue-token", flag.ExitOnError)
		userID := tokenCmd.String("user", "dev-user", "subject user id")
		name := tokenCmd.String("name", "Dev User", "display name")
		email := tokenCmd.String("email", "dev@example.com", "email")
		workspaceID := tokenCmd.String("workspace", "dev-workspace", "workspace id")
		ttl := tokenCmd.Duration("ttl", 24*time.Hour, "token validity")
		if err := tokenCmd.Parse(os.Args[2:]); err != nil {
			return err
		}
		return handleIssueToken(*userID, *name, *email, *workspaceID, *ttl)
	default:
		printUsage()
		return nil
	}
}

func handleClearRateLimit(all bool, key string) error {
	if !all && key == "" {
		return fmt.Errorf("must specify either --all or --key")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !cfg.Redis.Enabled {
		return fmt.Errorf("redis is not enabled in config")
	}

	cacheClient, err := cache.New(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		if err := cacheClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing cache client: %v\n", err)
		}
	}()

	ctx := context.Background()
	limiter := ratelimit.NewLimiter(cacheClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, true)
	defer limiter.Close()

	if all {
		if err := limiter.ClearAll(ctx); err != nil {
			return fmt.Errorf("clear all rate limits: %w", err)
		}
		fmt.Println("All rate limits cleared")
		return nil
	}

	if err := limiter.Reset(ctx, key); err != nil {
		return fmt.Errorf("clear rate limit: %w", err)
	}
	fmt.Printf("Rate limit cleared for key: %s\n", key)
	return nil
}

// handleSeed provisions a workspace and channels for local development.
// Channel names come from positional args, defaulting to "general".
func handleSeed(workspaceID, workspaceName string, channelNames []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.New(cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := migrations.Run(ctx, database.Pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	workspacesRepo := workspaces.NewRepository(database.Pool)
	if err := workspacesRepo.Upsert(ctx, &workspaces.Workspace{
		ID:   workspaceID,
		Name: workspaceName,
	}); err != nil {
		return fmt.Errorf("seed workspace: %w", err)
	}
	fmt.Printf("Workspace ready: %s\n", workspaceID)

	if len(channelNames) == 0 {
		channelNames = []string{"general"}
	}
	for _, name := range channelNames {
		_, err := database.Pool.Exec(ctx, `
			INSERT INTO channels (id, workspace_id, name, created_by)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (workspace_id, name) DO NOTHING`,
			uuid.New(), workspaceID, name, "seed",
		)
		if err != nil {
			return fmt.Errorf("seed channel %q: %w", name, err)
		}
		fmt.Printf("Channel ready: %s\n", name)
	}
	return nil
}

func handleIssueToken(userID, name, email, workspaceID string, ttl time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	manager := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	token, err := manager.Issue(&identity.Viewer{
		ID:          userID,
		Name:        name,
		Email:       email,
		WorkspaceID: workspaceID,
	}, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func printUsage() {
	fmt.Println("Huddle CLI")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  huddle-cli clear-ratelimit --all")
	fmt.Println("  huddle-cli clear-ratelimit --key <scope:subject>")
	fmt.Println("  huddle-cli seed --workspace <id> [channel names...]")
	fmt.Println("  huddle-cli issue-token --user <id> --workspace <id>")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  huddle-cli clear-ratelimit --key write:user-123")
	fmt.Println("  huddle-cli seed --workspace dev-workspace general random")
	fmt.Println("  huddle-cli issue-token --user dev-user --workspace dev-workspace --ttl 48h")
}

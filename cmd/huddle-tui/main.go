package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/huddle-chat/huddle/internal/common/config"
	"github.com/huddle-chat/huddle/internal/feed"
	"github.com/huddle-chat/huddle/internal/identity"
	"github.com/huddle-chat/huddle/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env")

	server := flag.String("server", envOr("HUDDLE_SERVER", "http://localhost:8080"), "huddle api base url")
	token := flag.String("token", os.Getenv("HUDDLE_TOKEN"), "bearer token (see huddle-cli issue-token)")
	channelID := flag.String("channel", "", "channel id to open")
	channelName := flag.String("channel-name", "", "channel display name")
	flag.Parse()

	if *token == "" {
		return fmt.Errorf("a token is required (--token or HUDDLE_TOKEN)")
	}
	if *channelID == "" {
		return fmt.Errorf("--channel is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	manager := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	viewer, err := manager.Verify(*token)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}

	name := *channelName
	if name == "" {
		name = *channelID
	}

	return tui.Run(tui.Options{
		API: feed.NewClient(*server, *token),
		Viewer: feed.Viewer{
			ID:        viewer.ID,
			Name:      viewer.Name,
			Email:     viewer.Email,
			AvatarURL: viewer.AvatarURL,
		},
		ChannelID:       *channelID,
		ChannelName:     name,
		PageSize:        cfg.Feed.PageSize,
		AnchorThreshold: cfg.Feed.AnchorThreshold,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

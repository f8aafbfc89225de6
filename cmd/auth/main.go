// Command auth runs the console OAuth2 flow for an installed-app client and
// stores the resulting user credentials for the assistant.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"embedded-assistant/config"
	"embedded-assistant/internal/infra/assistant"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	clientSecrets := flag.String("client-secrets", "", "path to the OAuth client secrets JSON")
	credentials := flag.String("credentials", "", "where to write the credentials (default from config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *clientSecrets != "" {
		cfg.Assistant.ClientSecrets = *clientSecrets
	}
	if *credentials != "" {
		cfg.Assistant.Credentials = *credentials
	}

	if err := authorize(context.Background(), cfg.Assistant); err != nil {
		logger.Error("authorization failed", "error", err)
		os.Exit(1)
	}
	logger.Info("credentials saved", "path", cfg.Assistant.Credentials)
}

func authorize(ctx context.Context, cfg config.AssistantConfig) error {
	if cfg.ClientSecrets == "" {
		return errors.New("no client secrets file given (-client-secrets or assistant.client_secrets)")
	}
	data, err := os.ReadFile(cfg.ClientSecrets)
	if err != nil {
		return fmt.Errorf("reading client secrets: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(data, cfg.Scopes...)
	if err != nil {
		return fmt.Errorf("parsing client secrets: %w", err)
	}

	state := uuid.NewString()
	url := oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Please visit this URL to authorize this application:\n\n%s\n\n", url)
	fmt.Print("Enter the authorization code: ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading authorization code: %w", err)
		}
		return errors.New("no authorization code entered")
	}
	code := strings.TrimSpace(scanner.Text())

	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	return assistant.SaveCredentials(cfg.Credentials, oauthCfg, tok)
}

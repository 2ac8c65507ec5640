package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"calbook/internal/booking"
	"calbook/internal/caldav"
	"calbook/internal/config"
	"calbook/internal/extractor"
	"calbook/internal/google"
	"calbook/internal/httpserver"
	"calbook/internal/webhook"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calbook",
		Usage: "Book calendar appointments from natural language requests.",
		Commands: []*cli.Command{
			authCommand(),
			serveCommand(),
			bookCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP booking service.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Listen port. Overrides PORT."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}
			logger := setupLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, ready, err := buildService(ctx, cfg, logger, false)
			if err != nil {
				return err
			}

			router := httpserver.NewRouter(logger, svc, ready)
			shutdownTimeout := cfg.ExtractionTimeout + cfg.ProviderTimeout
			return httpserver.Run(ctx, logger, fmt.Sprintf(":%d", cfg.Port), router, shutdownTimeout)
		},
	}
}

func bookCommand() *cli.Command {
	return &cli.Command{
		Name:      "book",
		Usage:     "Book a single appointment and print the result as JSON.",
		ArgsUsage: "<request>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Build the event without creating it."},
		},
		Action: func(c *cli.Context) error {
			text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if text == "" {
				return fmt.Errorf("a booking request is required, e.g. calbook book \"lunch with ann@example.com friday at noon\"")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)
			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No event will be created.")
			}

			svc, _, err := buildService(c.Context, cfg, logger, c.Bool("dry-run"))
			if err != nil {
				return err
			}

			res, err := svc.Book(c.Context, text)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"success":        true,
				"message":        res.Message,
				"event_details":  res.EventDetails,
				"extracted_info": res.Extracted,
			})
		},
	}
}

// buildService creates the process-wide clients once; they are shared by every request.
func buildService(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) (*booking.Service, httpserver.ReadyFunc, error) {
	model, err := extractor.NewModel(extractor.ModelConfig{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create language model client: %w", err)
	}
	ext, err := extractor.New(logger, extractor.NewLangChainBackend(model), cfg.Location)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	var (
		dispatcher booking.Dispatcher
		ready      httpserver.ReadyFunc
	)
	switch {
	case dryRun:
		dispatcher = booking.DryRunDispatcher{Logger: logger}
	case cfg.CalendarBackend == config.BackendGoogle:
		gClient, err := google.NewClient(ctx, logger, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleAccount)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create google client: %w", err)
		}
		dispatcher, ready = gClient, gClient.CheckAccess
	case cfg.CalendarBackend == config.BackendCalDAV:
		cClient, err := caldav.NewClient(ctx, logger, cfg.CalDAVEndpoint, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendarName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		dispatcher = cClient
	case cfg.CalendarBackend == config.BackendWebhook:
		wd, err := webhook.NewDispatcher(logger, cfg.WebhookURL, cfg.WebhookToken, cfg.ProviderTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create webhook dispatcher: %w", err)
		}
		dispatcher = wd
	default:
		return nil, nil, fmt.Errorf("unsupported calendar backend: %s", cfg.CalendarBackend)
	}
	logger.Info("Initialized booking service.", "llmProvider", cfg.LLMProvider, "model", cfg.LLMModel, "calendarBackend", cfg.CalendarBackend, "dryRun", dryRun)

	svc := booking.NewService(logger, ext, dispatcher, booking.Options{
		ExtractionTimeout: cfg.ExtractionTimeout,
		ProviderTimeout:   cfg.ProviderTimeout,
		Now:               time.Now,
	})
	return svc, ready, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

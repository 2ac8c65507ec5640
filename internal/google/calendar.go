package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"calbook/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	credentialsFile = "credentials.json"
)

// CalendarClient creates events through the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates a new Google Calendar client.
// It handles loading credentials and setting up an authenticated HTTP client.
// Tokens live in files like token-work.json; accountName selects one, and an empty
// accountName picks the first token file found.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	if accountName == "" {
		accounts, err := GetTokenAccounts()
		if err != nil {
			return nil, fmt.Errorf("failed to look for token files: %w", err)
		}
		if len(accounts) == 0 {
			return nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
		}
		accountName = accounts[0]
	}

	tokenFile := fmt.Sprintf("token-%s.json", accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	logger.Info("Initialized Google Calendar client.", "account", accountName)
	return NewClientWithService(logger, service), nil
}

// NewClientWithService wraps an already configured calendar service.
func NewClientWithService(logger *slog.Logger, service *calendar.Service) *CalendarClient {
	return &CalendarClient{service: service, logger: logger}
}

// CreateEvent inserts the payload as a timed event and returns Google's
// representation of the created event.
func (c *CalendarClient) CreateEvent(ctx context.Context, payload models.Payload) (map[string]any, error) {
	calendarID := payload.Text(models.KeyCalendarID)
	if calendarID == "" {
		calendarID = models.PrimaryCalendar
	}
	mode := payload.NotifyMode()
	if mode == "" {
		mode = models.NotifyNone
	}

	c.logger.Info("Creating Google Calendar event", "calendarID", calendarID, "summary", payload.Text(models.KeySummary), "sendUpdates", mode)

	created, err := c.service.Events.Insert(calendarID, toGoogleEvent(payload)).
		SendUpdates(string(mode)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, models.ProviderError(providerDetail(err), err)
	}

	result, err := toResult(created)
	if err != nil {
		return nil, models.ProviderError("failed to decode created event", err)
	}
	c.logger.Info("Successfully created Google Calendar event", "id", created.Id, "link", created.HtmlLink)
	return result, nil
}

// CheckAccess verifies the token can reach the primary calendar.
func (c *CalendarClient) CheckAccess(ctx context.Context) error {
	if _, err := c.service.CalendarList.Get(models.PrimaryCalendar).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to access primary calendar: %w", err)
	}
	return nil
}

// toGoogleEvent converts a provider payload to a calendar.Event.
func toGoogleEvent(p models.Payload) *calendar.Event {
	ev := &calendar.Event{
		Summary:     p.Text(models.KeySummary),
		Description: p.Text(models.KeyDescription),
		Start:       &calendar.EventDateTime{DateTime: p.Text(models.KeyStart)},
		End:         &calendar.EventDateTime{DateTime: p.Text(models.KeyEnd)},
	}
	for _, email := range p.Attendees() {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}
	return ev
}

// toResult re-encodes the API response so callers receive it unchanged as plain JSON.
func toResult(ev *calendar.Event) (map[string]any, error) {
	b, err := ev.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func providerDetail(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Message != "" {
			return fmt.Sprintf("google calendar rejected the event (%d): %s", gerr.Code, gerr.Message)
		}
		return fmt.Sprintf("google calendar rejected the event (%d)", gerr.Code)
	}
	return "failed to create google calendar event"
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// GetTokenAccounts lists the account names that have a saved token in the working directory.
func GetTokenAccounts() ([]string, error) {
	files, err := os.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	return accounts, nil
}

package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"calbook/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

const (
	ICloudEndpoint = "https://caldav.icloud.com/"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "calbook/1.0")
	return t.Transport.RoundTrip(req)
}

// Client writes booked events into a CalDAV calendar (iCloud by default).
type Client struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	calendarPath string
	organizer    string
}

// NewClient creates a CalDAV client and locates the calendar named calendarName.
func NewClient(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string) (*Client, error) {
	if endpoint == "" {
		endpoint = ICloudEndpoint
	}
	httpClient := &http.Client{Transport: &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}}

	c, err := newClient(logger, httpClient, endpoint)
	if err != nil {
		return nil, err
	}
	if strings.Contains(username, "@") {
		c.organizer = username
	}

	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarPath, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found CalDAV calendar", "path", calendarPath)

	return c, nil
}

func newClient(logger *slog.Logger, httpClient webdav.HTTPClient, endpoint string) (*Client, error) {
	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	return &Client{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
	}, nil
}

// CreateEvent stores the payload as a new VEVENT and returns its identifiers.
func (c *Client) CreateEvent(ctx context.Context, payload models.Payload) (map[string]any, error) {
	start, err := time.Parse(time.RFC3339Nano, payload.Text(models.KeyStart))
	if err != nil {
		return nil, models.ProviderError("invalid event start", err)
	}
	end, err := time.Parse(time.RFC3339Nano, payload.Text(models.KeyEnd))
	if err != nil {
		return nil, models.ProviderError("invalid event end", err)
	}

	uid := GenerateUID()
	c.logger.Debug("Creating CalDAV event", "summary", payload.Text(models.KeySummary), "uid", uid)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calbook//EN")
	cal.Children = append(cal.Children, c.toICal(payload, uid, start, end))

	eventPath := path.Join(c.calendarPath, fmt.Sprintf("%s.ics", uid))

	writer, err := c.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return nil, models.ProviderError("failed to create event on CalDAV server", err)
	}
	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		writer.Close()
		return nil, models.ProviderError("failed to encode event to iCal format", err)
	}
	if err := writer.Close(); err != nil {
		return nil, models.ProviderError("CalDAV server rejected the event", err)
	}

	c.logger.Info("Successfully created CalDAV event", "summary", payload.Text(models.KeySummary), "uid", uid)
	return map[string]any{
		"id":      uid,
		"uid":     uid,
		"href":    eventPath,
		"summary": payload.Text(models.KeySummary),
		"start":   payload.Text(models.KeyStart),
		"end":     payload.Text(models.KeyEnd),
	}, nil
}

// toICal converts a payload to an ical.Component (VEvent). Attendees are asked to
// RSVP only when the payload requests notifications.
func (c *Client) toICal(payload models.Payload, uid string, start, end time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, payload.Text(models.KeySummary))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())

	if d := payload.Text(models.KeyDescription); d != "" {
		ve.Props.SetText(ical.PropDescription, d)
	}

	attendees := payload.Attendees()
	if len(attendees) > 0 && c.organizer != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.SetText(fmt.Sprintf("mailto:%s", c.organizer))
		ve.Props.Add(p)
	}
	notify := payload.NotifyMode() == models.NotifyAll
	for _, attendee := range attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", attendee))
		if notify {
			p.Params.Set("RSVP", "TRUE")
			p.Params.Set("PARTSTAT", "NEEDS-ACTION")
		}
		ve.Props.Add(p)
	}
	return ve
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}

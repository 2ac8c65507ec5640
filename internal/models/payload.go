package models

// NotifyMode controls whether the calendar provider emails invitations.
type NotifyMode string

// Notification modes sent as sendUpdates.
const (
	NotifyAll  NotifyMode = "all"
	NotifyNone NotifyMode = "none"
)

// Payload keys understood by every calendar backend.
const (
	KeyCalendarID  = "calendarId"
	KeyAddType     = "addType"
	KeySummary     = "summary"
	KeyStart       = "eventStartDate"
	KeyEnd         = "eventEndDate"
	KeyAttendees   = "attendees"
	KeySendUpdates = "sendUpdates"
	KeyDescription = "description"
)

// Fixed payload values.
const (
	PrimaryCalendar = "primary"
	AddTypeDetailed = "detailed"
)

// Payload is the provider-ready "create event" request. It is built fresh for every
// booking and never reused.
type Payload map[string]any

// Text returns the string stored under key, or "" when absent or not a string.
func (p Payload) Text(key string) string {
	s, _ := p[key].(string)
	return s
}

// Attendees returns the attendee emails, or nil when the payload has none.
func (p Payload) Attendees() []string {
	a, _ := p[KeyAttendees].([]string)
	return a
}

// NotifyMode returns the sendUpdates value.
func (p Payload) NotifyMode() NotifyMode {
	return NotifyMode(p.Text(KeySendUpdates))
}

// Result is the outcome of a successful booking.
type Result struct {
	Message      string                `json:"message"`
	EventDetails map[string]any        `json:"event_details"`
	Extracted    *ExtractedAppointment `json:"extracted_info"`
	Payload      Payload               `json:"-"`
}

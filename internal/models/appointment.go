package models

// ExtractedAppointment is a candidate appointment produced from a free-text request.
// Start and End hold ISO 8601 text exactly as it will be handed to the normalizer;
// a value without a zone designator is a wall-clock time.
type ExtractedAppointment struct {
	Title       string   `json:"title" validate:"required" jsonschema:"required,minLength=1" jsonschema_description:"Meeting or appointment title"`
	Start       string   `json:"start_datetime" validate:"required" jsonschema:"required,minLength=1" jsonschema_description:"Start date and time in ISO 8601 format (YYYY-MM-DDTHH:MM:SS)"`
	End         string   `json:"end_datetime" jsonschema_description:"End date and time in ISO 8601 format. Defaults to one hour after start"`
	Attendees   []string `json:"attendee_emails" validate:"dive,email" jsonschema_description:"Attendee email addresses mentioned in the request, empty when none"`
	Description *string  `json:"description,omitempty" jsonschema_description:"Additional context for the meeting, omitted when none"`
}

// HasAttendees reports whether anyone besides the organizer is invited.
func (a *ExtractedAppointment) HasAttendees() bool {
	return len(a.Attendees) > 0
}

// Clone returns a deep copy so normalization never mutates the caller's record.
func (a *ExtractedAppointment) Clone() *ExtractedAppointment {
	c := *a
	c.Attendees = append([]string{}, a.Attendees...)
	if a.Description != nil {
		d := *a.Description
		c.Description = &d
	}
	return &c
}

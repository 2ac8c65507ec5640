// Package normalizer turns an extracted appointment into canonical form and maps it
// onto the calendar provider's "create event" payload.
//
// Datetimes without a zone designator are treated as UTC and stamped with "Z". A time
// the requester meant as local wall-clock time therefore lands at that hour in UTC.
package normalizer

import (
	"strings"
	"time"

	"calbook/internal/models"
)

// DefaultDuration is applied when a candidate has no end.
const DefaultDuration = time.Hour

// Normalize validates a candidate and returns a canonical copy: trimmed title,
// RFC 3339 instants with explicit offsets, strictly positive duration, a non-nil
// attendee list and no empty description. Normalizing a normalized record is a no-op.
func Normalize(candidate *models.ExtractedAppointment) (*models.ExtractedAppointment, error) {
	if candidate == nil {
		return nil, models.ValidationError("missing appointment", nil)
	}
	out := candidate.Clone()

	out.Title = strings.TrimSpace(out.Title)
	if out.Title == "" {
		return nil, models.ValidationError("empty title", nil)
	}

	start, _, err := ParseDateTime(out.Start)
	if err != nil {
		return nil, models.ValidationError("unparseable start datetime", err)
	}

	var end time.Time
	if strings.TrimSpace(out.End) == "" {
		end = start.Add(DefaultDuration)
	} else {
		end, _, err = ParseDateTime(out.End)
		if err != nil {
			return nil, models.ValidationError("unparseable end datetime", err)
		}
	}

	if !end.After(start) {
		return nil, models.ValidationError("non-positive duration", nil)
	}

	out.Start = FormatDateTime(start, true)
	out.End = FormatDateTime(end, true)

	attendees := make([]string, 0, len(out.Attendees))
	for _, a := range out.Attendees {
		if a = strings.TrimSpace(a); a != "" {
			attendees = append(attendees, a)
		}
	}
	out.Attendees = attendees

	if out.Description != nil {
		d := strings.TrimSpace(*out.Description)
		if d == "" {
			out.Description = nil
		} else {
			out.Description = &d
		}
	}

	return out, nil
}

// BuildPayload maps a normalized appointment onto the provider request. It always
// targets the primary calendar with a timed, detailed event.
func BuildPayload(a *models.ExtractedAppointment) models.Payload {
	p := models.Payload{
		models.KeyCalendarID: models.PrimaryCalendar,
		models.KeyAddType:    models.AddTypeDetailed,
		models.KeySummary:    a.Title,
		models.KeyStart:      a.Start,
		models.KeyEnd:        a.End,
	}
	if a.HasAttendees() {
		p[models.KeyAttendees] = append([]string{}, a.Attendees...)
		p[models.KeySendUpdates] = string(models.NotifyAll)
	} else {
		p[models.KeySendUpdates] = string(models.NotifyNone)
	}
	if a.Description != nil {
		p[models.KeyDescription] = *a.Description
	}
	return p
}

// NormalizeAndBuild normalizes a candidate and builds its payload.
func NormalizeAndBuild(candidate *models.ExtractedAppointment) (models.Payload, error) {
	n, err := Normalize(candidate)
	if err != nil {
		return nil, err
	}
	return BuildPayload(n), nil
}

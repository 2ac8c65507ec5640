package normalizer

import (
	"errors"
	"testing"
	"time"

	"calbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  time.Time
		zoned bool
	}{
		{"naive seconds", "2024-06-11T14:00:00", time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC), false},
		{"naive minutes", "2024-06-11T14:00", time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC), false},
		{"naive space separated", "2024-06-11 14:30:00", time.Date(2024, 6, 11, 14, 30, 0, 0, time.UTC), false},
		{"utc designator", "2024-06-11T14:00:00Z", time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC), true},
		{"positive offset", "2024-06-11T14:00:00+02:00", time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC), true},
		{"offset without colon", "2024-06-11T14:00:00-0500", time.Date(2024, 6, 11, 19, 0, 0, 0, time.UTC), true},
		{"fractional seconds", "2024-06-11T14:00:00.250Z", time.Date(2024, 6, 11, 14, 0, 0, 250e6, time.UTC), true},
		{"surrounding whitespace", "  2024-06-11T14:00:00  ", time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, zoned, err := ParseDateTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, tt.zoned, zoned)
		})
	}

	for _, bad := range []string{"", "tomorrow at 2pm", "2024-13-01T10:00:00", "2024-06-11"} {
		_, _, err := ParseDateTime(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNormalize_NaiveTimesAreStampedUTC(t *testing.T) {
	n, err := Normalize(&models.ExtractedAppointment{
		Title: "Call",
		Start: "2024-06-11T14:00:00",
		End:   "2024-06-11T15:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-11T14:00:00Z", n.Start)
	assert.Equal(t, "2024-06-11T15:00:00Z", n.End)
}

func TestNormalize_PreservesExplicitOffsets(t *testing.T) {
	n, err := Normalize(&models.ExtractedAppointment{
		Title: "Call",
		Start: "2024-06-11T14:00:00+02:00",
		End:   "2024-06-11T14:45:00+02:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-11T14:00:00+02:00", n.Start)
	assert.Equal(t, "2024-06-11T14:45:00+02:00", n.End)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   *models.ExtractedAppointment
		msg  string
	}{
		{"nil candidate", nil, "missing appointment"},
		{"blank title", &models.ExtractedAppointment{Title: "  ", Start: "2024-06-11T14:00:00"}, "empty title"},
		{"bad start", &models.ExtractedAppointment{Title: "x", Start: "soon", End: "2024-06-11T15:00:00"}, "unparseable start datetime"},
		{"bad end", &models.ExtractedAppointment{Title: "x", Start: "2024-06-11T14:00:00", End: "later"}, "unparseable end datetime"},
		{"end one minute before start", &models.ExtractedAppointment{Title: "x", Start: "2024-06-11T14:00:00", End: "2024-06-11T13:59:00"}, "non-positive duration"},
		{"end equals start", &models.ExtractedAppointment{Title: "x", Start: "2024-06-11T14:00:00Z", End: "2024-06-11T16:00:00+02:00"}, "non-positive duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrValidation))
			assert.Equal(t, models.KindValidation, models.KindOf(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNormalize_FillsMissingEnd(t *testing.T) {
	n, err := Normalize(&models.ExtractedAppointment{Title: "Call", Start: "2024-06-11T09:00:00"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-11T10:00:00Z", n.End)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []*models.ExtractedAppointment{
		{Title: " Call ", Start: "2024-06-11T14:00", End: "2024-06-11 15:30:00", Attendees: []string{" a@x.com ", "a@x.com"}, Description: strPtr("  ")},
		{Title: "Sync", Start: "2024-06-11T14:00:00.500+05:30", End: "2024-06-11T15:00:00+05:30", Description: strPtr("agenda")},
		{Title: "Standup", Start: "2024-06-11T09:00:00Z"},
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := &models.ExtractedAppointment{Title: " Call ", Start: "2024-06-11T14:00:00", Attendees: []string{" a@x.com"}}
	_, err := Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, " Call ", in.Title)
	assert.Equal(t, "2024-06-11T14:00:00", in.Start)
	assert.Equal(t, []string{" a@x.com"}, in.Attendees)
}

func TestNormalize_KeepsDuplicateAttendees(t *testing.T) {
	n, err := Normalize(&models.ExtractedAppointment{Title: "x", Start: "2024-06-11T14:00:00", Attendees: []string{"a@x.com", "a@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "a@x.com"}, n.Attendees)
}

func TestBuildPayload(t *testing.T) {
	t.Run("Should notify all invitees when attendees exist", func(t *testing.T) {
		p, err := NormalizeAndBuild(&models.ExtractedAppointment{
			Title:       "Call",
			Start:       "2024-06-11T14:00:00",
			End:         "2024-06-11T15:00:00",
			Attendees:   []string{"john@example.com"},
			Description: strPtr("Q1 budget"),
		})
		require.NoError(t, err)
		assert.Equal(t, models.Payload{
			"calendarId":     "primary",
			"addType":        "detailed",
			"summary":        "Call",
			"eventStartDate": "2024-06-11T14:00:00Z",
			"eventEndDate":   "2024-06-11T15:00:00Z",
			"attendees":      []string{"john@example.com"},
			"sendUpdates":    "all",
			"description":    "Q1 budget",
		}, p)
		assert.Equal(t, models.NotifyAll, p.NotifyMode())
	})

	t.Run("Should notify none and omit optional keys otherwise", func(t *testing.T) {
		p, err := NormalizeAndBuild(&models.ExtractedAppointment{
			Title: "Dentist appointment",
			Start: "2024-06-14T14:00:00",
			End:   "2024-06-14T15:00:00",
		})
		require.NoError(t, err)
		assert.Equal(t, models.NotifyNone, p.NotifyMode())
		assert.NotContains(t, p, models.KeyAttendees)
		assert.NotContains(t, p, models.KeyDescription)
		assert.Equal(t, "Dentist appointment", p.Text(models.KeySummary))
	})

	t.Run("Should keep end strictly after start", func(t *testing.T) {
		p, err := NormalizeAndBuild(&models.ExtractedAppointment{Title: "x", Start: "2024-06-11T23:30:00", End: "2024-06-12T00:15:00"})
		require.NoError(t, err)
		start, _, err := ParseDateTime(p.Text(models.KeyStart))
		require.NoError(t, err)
		end, _, err := ParseDateTime(p.Text(models.KeyEnd))
		require.NoError(t, err)
		assert.True(t, end.After(start))
	})
}

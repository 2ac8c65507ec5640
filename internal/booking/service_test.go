package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"calbook/internal/extractor"
	"calbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reference = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeExtractor struct {
	appt    *models.ExtractedAppointment
	err     error
	block   bool
	calls   int
	gotRef  time.Time
	gotText string
}

func (f *fakeExtractor) Extract(ctx context.Context, text string, ref time.Time) (*models.ExtractedAppointment, error) {
	f.calls++
	f.gotRef, f.gotText = ref, text
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.appt, f.err
}

type fakeDispatcher struct {
	ret     map[string]any
	err     error
	block   bool
	calls   int
	payload models.Payload
}

func (f *fakeDispatcher) CreateEvent(ctx context.Context, p models.Payload) (map[string]any, error) {
	f.calls++
	f.payload = p
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.ret, f.err
}

type fakeBackend struct{ out string }

func (f fakeBackend) Complete(context.Context, extractor.PromptContext) (string, error) {
	return f.out, nil
}

func newService(e Extractor, d Dispatcher) *Service {
	return NewService(discard(), e, d, Options{
		ExtractionTimeout: 50 * time.Millisecond,
		ProviderTimeout:   50 * time.Millisecond,
		Now:               func() time.Time { return reference },
	})
}

func TestBook_Success(t *testing.T) {
	ex := &fakeExtractor{appt: &models.ExtractedAppointment{
		Title:     "Call with John",
		Start:     "2024-06-11T14:00:00",
		End:       "2024-06-11T15:00:00",
		Attendees: []string{"john@example.com"},
	}}
	d := &fakeDispatcher{ret: map[string]any{"id": "evt1", "extra": []any{"kept"}}}

	res, err := newService(ex, d).Book(context.Background(), "Book a call with john@example.com tomorrow at 2pm")
	require.NoError(t, err)

	assert.Equal(t, reference, ex.gotRef)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, map[string]any{"id": "evt1", "extra": []any{"kept"}}, res.EventDetails)
	assert.Equal(t, "Appointment booked successfully! 'Call with John' scheduled for 2024-06-11T14:00:00 with 1 attendee(s)", res.Message)
	assert.Equal(t, "2024-06-11T14:00:00", res.Extracted.Start)

	assert.Equal(t, "2024-06-11T14:00:00Z", d.payload.Text(models.KeyStart))
	assert.Equal(t, "2024-06-11T15:00:00Z", d.payload.Text(models.KeyEnd))
	assert.Equal(t, models.NotifyAll, d.payload.NotifyMode())
	assert.Equal(t, []string{"john@example.com"}, d.payload.Attendees())
}

func TestBook_NoAttendeesMessage(t *testing.T) {
	ex := &fakeExtractor{appt: &models.ExtractedAppointment{Title: "Dentist appointment", Start: "2024-06-14T14:00:00", End: "2024-06-14T15:00:00", Attendees: []string{}}}
	d := &fakeDispatcher{}

	res, err := newService(ex, d).Book(context.Background(), "Create an event called 'Dentist appointment' on Friday at 2pm")
	require.NoError(t, err)
	assert.Equal(t, "Appointment booked successfully! 'Dentist appointment' scheduled for 2024-06-14T14:00:00", res.Message)
	assert.Equal(t, map[string]any{}, res.EventDetails)
	assert.Equal(t, models.NotifyNone, d.payload.NotifyMode())
}

func TestBook_MissingTitleNeverReachesProvider(t *testing.T) {
	ext, err := extractor.New(discard(), fakeBackend{out: `{"start_datetime":"2024-06-11T14:00:00","end_datetime":"2024-06-11T15:00:00"}`}, time.UTC)
	require.NoError(t, err)
	d := &fakeDispatcher{}

	_, err = newService(ext, d).Book(context.Background(), "call john@example.com tomorrow at 2pm")
	require.Error(t, err)
	assert.Equal(t, models.KindExtraction, models.KindOf(err))
	assert.Zero(t, d.calls)
}

func TestBook_NegativeDurationNeverReachesProvider(t *testing.T) {
	ex := &fakeExtractor{appt: &models.ExtractedAppointment{Title: "Call", Start: "2024-06-11T14:00:00", End: "2024-06-11T13:59:00"}}
	d := &fakeDispatcher{}

	_, err := newService(ex, d).Book(context.Background(), "call at 2pm")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Contains(t, err.Error(), "non-positive duration")
	assert.Zero(t, d.calls)
}

func TestBook_Failures(t *testing.T) {
	tests := []struct {
		name     string
		ex       *fakeExtractor
		d        *fakeDispatcher
		text     string
		kind     models.Kind
		dispatch int
	}{
		{"empty request", &fakeExtractor{}, &fakeDispatcher{}, "   ", models.KindValidation, 0},
		{"extractor plain error", &fakeExtractor{err: errors.New("boom")}, &fakeDispatcher{}, "x", models.KindExtraction, 0},
		{"extractor timeout", &fakeExtractor{block: true}, &fakeDispatcher{}, "x", models.KindExtraction, 0},
		{"extractor nil result", &fakeExtractor{}, &fakeDispatcher{}, "x", models.KindExtraction, 0},
		{"provider error kept", okExtractor(), &fakeDispatcher{err: models.ProviderError("quota exceeded", nil)}, "x", models.KindProvider, 1},
		{"provider plain error", okExtractor(), &fakeDispatcher{err: errors.New("dial tcp: refused")}, "x", models.KindProvider, 1},
		{"provider timeout", okExtractor(), &fakeDispatcher{block: true}, "x", models.KindProvider, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			started := time.Now()
			res, err := newService(tt.ex, tt.d).Book(context.Background(), tt.text)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.kind, models.KindOf(err))
			assert.Equal(t, tt.dispatch, tt.d.calls)
			assert.Less(t, time.Since(started), 5*time.Second)
		})
	}
}

func TestBook_TimeoutMessage(t *testing.T) {
	_, err := newService(okExtractor(), &fakeDispatcher{block: true}).Book(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(discard(), &fakeExtractor{}, &fakeDispatcher{}, Options{})
	assert.Equal(t, DefaultExtractionTimeout, s.opts.ExtractionTimeout)
	assert.Equal(t, DefaultProviderTimeout, s.opts.ProviderTimeout)
	assert.NotNil(t, s.opts.Now)
}

func okExtractor() *fakeExtractor {
	return &fakeExtractor{appt: &models.ExtractedAppointment{Title: "Call", Start: "2024-06-11T14:00:00", End: "2024-06-11T15:00:00"}}
}

func TestBook_DryRunEchoesPayload(t *testing.T) {
	res, err := newService(okExtractor(), DryRunDispatcher{Logger: discard()}).Book(context.Background(), "call at 2pm")
	require.NoError(t, err)
	assert.Equal(t, true, res.EventDetails["dryRun"])
	assert.Equal(t, "2024-06-11T14:00:00Z", res.EventDetails[models.KeyStart])
	assert.Equal(t, "none", res.EventDetails[models.KeySendUpdates])
}

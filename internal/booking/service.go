// Package booking runs one booking request end to end: extraction, normalization and
// dispatch to the calendar backend. Nothing is shared between requests.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"calbook/internal/metrics"
	"calbook/internal/models"
	"calbook/internal/normalizer"
)

const (
	DefaultExtractionTimeout = 15 * time.Second
	DefaultProviderTimeout   = 15 * time.Second
)

// Extractor produces a candidate appointment from free text.
type Extractor interface {
	Extract(ctx context.Context, text string, reference time.Time) (*models.ExtractedAppointment, error)
}

// Dispatcher sends a payload to the calendar provider and returns its acknowledgement.
type Dispatcher interface {
	CreateEvent(ctx context.Context, payload models.Payload) (map[string]any, error)
}

type Options struct {
	ExtractionTimeout time.Duration
	ProviderTimeout   time.Duration
	// Now supplies the reference instant; time.Now when nil.
	Now func() time.Time
}

// Service orchestrates bookings.
type Service struct {
	logger     *slog.Logger
	extractor  Extractor
	dispatcher Dispatcher
	opts       Options
}

func NewService(logger *slog.Logger, extractor Extractor, dispatcher Dispatcher, opts Options) *Service {
	if opts.ExtractionTimeout <= 0 {
		opts.ExtractionTimeout = DefaultExtractionTimeout
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = DefaultProviderTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{logger: logger, extractor: extractor, dispatcher: dispatcher, opts: opts}
}

// Book turns text into a created calendar event. Every failure is a *models.Error;
// the provider is only called once a valid payload exists.
func (s *Service) Book(ctx context.Context, text string) (*models.Result, error) {
	res, err := s.book(ctx, text)
	if err != nil {
		metrics.RecordBooking(string(models.KindOf(err)))
		s.logger.Error("Booking failed", "kind", models.KindOf(err), "error", err)
		return nil, err
	}
	metrics.RecordBooking("success")
	return res, nil
}

func (s *Service) book(ctx context.Context, text string) (*models.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ValidationError("booking request is empty", nil)
	}
	s.logger.Info("Processing appointment booking request", "request", text)

	extracted, err := s.extract(ctx, text)
	if err != nil {
		return nil, err
	}

	payload, err := normalizer.NormalizeAndBuild(extracted)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Built provider payload", "payload", payload)

	details, err := s.dispatch(ctx, payload)
	if err != nil {
		return nil, err
	}

	return &models.Result{
		Message:      confirmation(extracted),
		EventDetails: details,
		Extracted:    extracted,
		Payload:      payload,
	}, nil
}

func (s *Service) extract(ctx context.Context, text string) (*models.ExtractedAppointment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ExtractionTimeout)
	defer cancel()

	started := time.Now()
	extracted, err := s.extractor.Extract(ctx, text, s.opts.Now())
	metrics.RecordStage("extract", err, time.Since(started))
	if err != nil {
		return nil, asKind(err, models.KindExtraction, "extraction failed")
	}
	if extracted == nil {
		return nil, models.ExtractionError("extractor returned no appointment", nil)
	}
	return extracted, nil
}

func (s *Service) dispatch(ctx context.Context, payload models.Payload) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()

	s.logger.Info("Creating calendar event", "summary", payload.Text(models.KeySummary), "start", payload.Text(models.KeyStart))
	started := time.Now()
	details, err := s.dispatcher.CreateEvent(ctx, payload)
	metrics.RecordStage("dispatch", err, time.Since(started))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && models.KindOf(err) == "" {
			return nil, models.ProviderError("calendar provider timed out", err)
		}
		return nil, asKind(err, models.KindProvider, "calendar provider failed")
	}
	if details == nil {
		details = map[string]any{}
	}
	return details, nil
}

// asKind keeps an existing *models.Error and classifies anything else as kind.
func asKind(err error, kind models.Kind, msg string) error {
	if models.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		msg += ": timed out"
	}
	return &models.Error{Kind: kind, Message: msg, Err: err}
}

func confirmation(a *models.ExtractedAppointment) string {
	msg := fmt.Sprintf("Appointment booked successfully! '%s' scheduled for %s", a.Title, a.Start)
	if a.HasAttendees() {
		msg += fmt.Sprintf(" with %d attendee(s)", len(a.Attendees))
	}
	return msg
}

// Package extractor turns a free-text scheduling request into a candidate appointment
// using a language model constrained to a fixed JSON output schema.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"calbook/internal/models"
	"calbook/internal/normalizer"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonschema"
)

// DefaultStartHour is the start hour used when the request names no time of day.
const DefaultStartHour = 9

// PromptContext is everything a backend needs for one structured completion.
type PromptContext struct {
	System string
	User   string
	Schema []byte
}

// Backend is the language model capability. Complete returns the raw JSON text of a
// single completion; it is called exactly once per extraction.
type Backend interface {
	Complete(ctx context.Context, pc PromptContext) (string, error)
}

// Extractor builds prompts, calls the backend and enforces the output contract.
type Extractor struct {
	backend    Backend
	logger     *slog.Logger
	location   *time.Location
	validate   *validator.Validate
	schema     *jsonschema.Schema
	schemaJSON []byte
}

// New creates an Extractor. loc is the zone the reference instant is shown in.
func New(logger *slog.Logger, backend Backend, loc *time.Location) (*Extractor, error) {
	if backend == nil {
		return nil, fmt.Errorf("extraction backend is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if loc != time.UTC {
		logger.Warn("Non-UTC timezone configured; the model is asked for offset datetimes", "timezone", loc.String())
	}
	raw, compiled, err := compileOutputSchema()
	if err != nil {
		return nil, err
	}
	return &Extractor{
		backend:    backend,
		logger:     logger,
		location:   loc,
		validate:   validator.New(),
		schema:     compiled,
		schemaJSON: raw,
	}, nil
}

// Extract resolves text against reference and returns a candidate appointment. Any
// backend failure or non-conforming output is reported as an extraction error.
func (e *Extractor) Extract(ctx context.Context, text string, reference time.Time) (*models.ExtractedAppointment, error) {
	e.logger.Info("Extracting appointment details", "request", text)

	pc := PromptContext{
		System: BuildSystemPrompt(reference, e.location, e.schemaJSON),
		User:   text,
		Schema: e.schemaJSON,
	}
	out, err := e.backend.Complete(ctx, pc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.ExtractionError("language model call timed out", err)
		}
		return nil, models.ExtractionError("language model call failed", err)
	}
	e.logger.Debug("Received model output", "output", out)

	appt, err := e.decode(out)
	if err != nil {
		return nil, err
	}

	applyDefaults(appt, text)
	if err := e.validate.Struct(appt); err != nil {
		return nil, models.ExtractionError("model output failed shape checks", err)
	}
	e.logger.Info("Successfully extracted appointment details", "title", appt.Title, "start", appt.Start, "end", appt.End, "attendees", len(appt.Attendees))
	return appt, nil
}

// decode checks the raw output against the schema before trusting any field.
func (e *Extractor) decode(out string) (*models.ExtractedAppointment, error) {
	var doc any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &doc); err != nil {
		return nil, models.ExtractionError("model output is not valid JSON", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, models.ExtractionError("model output is not a JSON object", nil)
	}
	if result := e.schema.Validate(doc); !result.Valid {
		return nil, models.ExtractionError("model output does not match schema", fmt.Errorf("%v", result.Errors))
	}

	var appt models.ExtractedAppointment
	if err := json.Unmarshal([]byte(out), &appt); err != nil {
		return nil, models.ExtractionError("model output does not match schema", err)
	}
	if strings.TrimSpace(appt.Title) == "" {
		return nil, models.ExtractionError("model output is missing a title", nil)
	}
	return &appt, nil
}

// applyDefaults enforces the defaulting rules on a decoded candidate. Unparseable
// datetimes are left untouched for the normalizer to reject.
func applyDefaults(a *models.ExtractedAppointment, text string) {
	a.Title = strings.TrimSpace(a.Title)

	if a.Attendees == nil || !mentionsEmail(text) {
		a.Attendees = []string{}
	}
	for i := range a.Attendees {
		a.Attendees[i] = strings.TrimSpace(a.Attendees[i])
	}

	if a.Description != nil && strings.TrimSpace(*a.Description) == "" {
		a.Description = nil
	}

	start, zoned, ok := parseStart(a.Start)
	if !ok {
		return
	}
	shifted := start
	if !mentionsTimeOfDay(text) {
		shifted = time.Date(start.Year(), start.Month(), start.Day(), DefaultStartHour, 0, 0, 0, start.Location())
	}
	a.Start = normalizer.FormatDateTime(shifted, zoned)

	end, endZoned, endErr := normalizer.ParseDateTime(a.End)
	switch {
	case strings.TrimSpace(a.End) == "" || !mentionsDuration(text):
		a.End = normalizer.FormatDateTime(shifted.Add(normalizer.DefaultDuration), zoned)
	case endErr == nil && !shifted.Equal(start):
		a.End = normalizer.FormatDateTime(end.Add(shifted.Sub(start)), endZoned)
	}
}

// parseStart accepts a full datetime or a bare date, which is placed at DefaultStartHour.
func parseStart(s string) (time.Time, bool, bool) {
	if t, zoned, err := normalizer.ParseDateTime(s); err == nil {
		return t, zoned, true
	}
	if d, err := normalizer.ParseDate(s); err == nil {
		return d.Add(DefaultStartHour * time.Hour), false, true
	}
	return time.Time{}, false, false
}

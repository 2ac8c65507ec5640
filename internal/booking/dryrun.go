package booking

import (
	"context"
	"log/slog"

	"calbook/internal/models"
)

// DryRunDispatcher logs the payload it would send and echoes it back instead of
// contacting a provider.
type DryRunDispatcher struct {
	Logger *slog.Logger
}

// CreateEvent returns a copy of payload tagged with a dry-run status.
func (d DryRunDispatcher) CreateEvent(_ context.Context, payload models.Payload) (map[string]any, error) {
	d.Logger.Info("[DRY RUN] Would create calendar event", "summary", payload.Text(models.KeySummary), "start", payload.Text(models.KeyStart))
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["dryRun"] = true
	return out, nil
}

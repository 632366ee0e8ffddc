// Package report delivers operation results to the management API.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/garrison-sh/garrison/pkg/log"
	"github.com/garrison-sh/garrison/pkg/types"
)

// DefaultTimeout bounds a single report delivery
const DefaultTimeout = 10 * time.Second

// payload is the wire shape posted to the collector
type payload struct {
	ReportID   string       `json:"report_id"`
	ReportedAt time.Time    `json:"reported_at"`
	Result     types.Result `json:"result"`
}

// Reporter posts results to a collector endpoint
type Reporter struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewReporter creates a reporter for the given collector URL. An empty
// URL disables reporting.
func NewReporter(url string) *Reporter {
	return &Reporter{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: log.WithComponent("report"),
	}
}

// Enabled reports whether a collector URL is configured
func (r *Reporter) Enabled() bool {
	return r.url != ""
}

// Send posts the result to the collector. Failures are logged, not
// fatal: a lost report never undoes the operation it describes.
func (r *Reporter) Send(ctx context.Context, result types.Result) error {
	if !r.Enabled() {
		return nil
	}

	body, err := json.Marshal(payload{
		ReportID:   uuid.NewString(),
		ReportedAt: time.Now().UTC(),
		Result:     result,
	})
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error().Err(err).Str("url", r.url).Msg("Failed to send report")
		return fmt.Errorf("failed to send report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		r.logger.Error().Int("status", resp.StatusCode).Str("url", r.url).Msg("Collector rejected report")
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}

	r.logger.Debug().
		Str("subscription_id", result.SubscriptionID).
		Str("action", string(result.Action)).
		Msg("Report delivered")
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/deliverability/internal/domain"
	"github.com/ignite/deliverability/internal/service/settings"
	"github.com/ignite/deliverability/internal/service/stats"
	"github.com/ignite/deliverability/internal/service/suppression"
)

// EventProcessor processes delivery events synchronously.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, evt domain.EmailEvent) error
	CleanupOldDeliveryLogs(ctx context.Context) (int64, error)
}

// EventPublisher enqueues delivery events for asynchronous processing.
// Optional; when nil, events are processed inline.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.EmailEvent)
}

// SettingsService exposes the tracking configuration singleton.
type SettingsService interface {
	Get(ctx context.Context) (domain.TrackingConfig, error)
	Update(ctx context.Context, p settings.Patch, actor string) (domain.TrackingConfig, error)
}

// SuppressionService exposes the suppression list.
type SuppressionService interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, in suppression.AddInput) error
	Remove(ctx context.Context, email string) error
	GetSummary(ctx context.Context) (*suppression.Summary, error)
	List(ctx context.Context, f suppression.ListFilter) ([]domain.SuppressionEntry, int, error)
}

// StatsService exposes delivery statistics and health alerts.
type StatsService interface {
	DeliveryStats(ctx context.Context, start, end time.Time) (*stats.DeliveryStats, error)
	HealthAlerts(ctx context.Context, days int) ([]stats.Alert, error)
	RecentCampaignStats(ctx context.Context, limit int) ([]stats.CampaignStats, error)
}

// Handlers bundles the HTTP handlers and their service dependencies.
type Handlers struct {
	Tracking    EventProcessor
	Publisher   EventPublisher
	Settings    SettingsService
	Suppression SuppressionService
	Stats       StatsService
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IngestEvent accepts one normalized delivery event. With a publisher
// configured the event is queued and processing happens in the consumer;
// otherwise it is processed inline. Either way the provider gets a 202:
// unknown-message events are acknowledged too, retrying them is pointless.
func (h *Handlers) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var evt domain.EmailEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := evt.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if h.Publisher != nil {
		h.Publisher.Publish(r.Context(), evt)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	if err := h.Tracking.ProcessEvent(r.Context(), evt); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// GetConfig returns the tracking configuration.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateConfig applies a partial configuration update. Validation failures
// reject the whole patch with a 400.
func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var p settings.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := h.Settings.Update(r.Context(), p, r.Header.Get("X-Actor"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// ListSuppressions returns suppression entries with pagination.
func (h *Handlers) ListSuppressions(w http.ResponseWriter, r *http.Request) {
	f := suppression.ListFilter{
		Reason: r.URL.Query().Get("reason"),
		Limit:  queryInt(r, "limit", 100),
		Offset: queryInt(r, "offset", 0),
	}
	entries, total, err := h.Suppression.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []domain.SuppressionEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suppressions": entries,
		"total":        total,
	})
}

// AddSuppression manually suppresses an email address.
func (h *Handlers) AddSuppression(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string     `json:"email"`
		Reason    string     `json:"reason"`
		Notes     string     `json:"notes"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if input.Reason == "" {
		input.Reason = string(domain.ReasonManual)
	}

	err := h.Suppression.Add(r.Context(), suppression.AddInput{
		Email:     input.Email,
		Reason:    domain.SuppressionReason(input.Reason),
		Notes:     input.Notes,
		ExpiresAt: input.ExpiresAt,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// RemoveSuppression deletes a suppression entry.
func (h *Handlers) RemoveSuppression(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	err := h.Suppression.Remove(r.Context(), email)
	if errors.Is(err, suppression.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SuppressionSummary returns live counts grouped by reason.
func (h *Handlers) SuppressionSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Suppression.GetSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// CheckSuppression reports whether an email is currently suppressed. Meant
// for the send pipeline's pre-dispatch check.
func (h *Handlers) CheckSuppression(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email query parameter is required"})
		return
	}
	suppressed, err := h.Suppression.IsSuppressed(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"email": email, "suppressed": suppressed})
}

// GetDeliveryStats returns aggregate stats for a time window. Defaults to
// the trailing 7 days.
func (h *Handlers) GetDeliveryStats(w http.ResponseWriter, r *http.Request) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		end = t
	}

	st, err := h.Stats.DeliveryStats(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetHealthAlerts returns threshold breaches for the trailing window.
func (h *Handlers) GetHealthAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Stats.HealthAlerts(r.Context(), queryInt(r, "days", 7))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if alerts == nil {
		alerts = []stats.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// GetCampaignStats returns per-campaign rollups.
func (h *Handlers) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Stats.RecentCampaignStats(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if campaigns == nil {
		campaigns = []stats.CampaignStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

// RunCleanup triggers a retention cleanup run.
func (h *Handlers) RunCleanup(w http.ResponseWriter, r *http.Request) {
	n, err := h.Tracking.CleanupOldDeliveryLogs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

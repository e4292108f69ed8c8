// Package botapi exposes the read-only operator HTTP API. It mirrors the
// chat commands: current alerts and relay status.
package botapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/herald/internal/event"
	"github.com/linnemanlabs/herald/internal/relay"
)

// RelayService defines the read-only relay operations botapi needs.
type RelayService interface {
	ListActive(ctx context.Context, all bool) ([]event.RawEvent, error)
	CurrentStatus(ctx context.Context) (relay.Status, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    RelayService
}

// New creates a new API handler.
func New(logger log.Logger, svc RelayService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("relay service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/alerts", a.handleListAlerts)
		r.Get("/status", a.handleStatus)
	})
}

// alertView is the wire shape of one active event.
type alertView struct {
	EventID       string `json:"event_id"`
	Host          string `json:"host"`
	Contract      string `json:"contract"`
	Severity      int    `json:"severity"`
	SeverityLabel string `json:"severity_label"`
	RaisedAt      string `json:"raised_at"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	OpData        string `json:"opdata,omitempty"`
}

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("all")
	all := q == "1" || q == "true"

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Bool("herald.alerts.all", all))

	events, err := a.svc.ListActive(r.Context(), all)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list active events", "all", all)
		http.Error(w, `{"error":"event source unavailable"}`, http.StatusBadGateway)
		return
	}

	span.SetAttributes(attribute.Int("herald.alerts.count", len(events)))

	views := make([]alertView, 0, len(events))
	for _, ev := range events {
		views = append(views, alertView{
			EventID:       ev.EventID,
			Host:          ev.Host,
			Contract:      ev.Contract(),
			Severity:      ev.Severity,
			SeverityLabel: event.SeverityLabel(ev.Severity),
			RaisedAt:      time.Unix(ev.Clock, 0).UTC().Format(time.RFC3339),
			Name:          ev.Name,
			Description:   ev.Description,
			OpData:        ev.OpData,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"count":  len(views),
		"events": views,
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.CurrentStatus(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to read relay status")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"pending":        st.Pending,
		"notified":       st.Notified,
		"min_severity":   st.MinSeverity,
		"uptime_seconds": int64(st.Uptime.Seconds()),
	})
}

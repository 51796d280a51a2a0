package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/models"
	"github.com/mbelyakov/sales_crm/internal/mykafka"
)

// Topic is the Kafka topic every audit event is mirrored to.
const Topic = "audit_events"

// Event describes one auditable action. UserID stays empty for
// unauthenticated failures (bad login attempts and the like).
type Event struct {
	UserID     string
	Action     string
	Type       string
	ResourceID string
	Details    map[string]any
	IP         string
	Agent      string
}

// Recorder appends audit events to the audit_logs table and mirrors them to
// Kafka. Both writes are fire-and-forget: failures are logged and swallowed,
// never surfaced to the request that triggered them.
type Recorder struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Log      *slog.Logger
}

func (r *Recorder) Record(ctx context.Context, e Event) {
	if r == nil {
		return
	}

	details := ""
	if e.Details != nil {
		if b, err := json.Marshal(e.Details); err == nil {
			details = string(b)
		}
	}

	row := models.AuditLog{
		Action:     e.Action,
		Type:       e.Type,
		ResourceID: e.ResourceID,
		Details:    details,
		IP:         e.IP,
		Agent:      e.Agent,
		Timestamp:  time.Now().UTC(),
	}
	if e.UserID != "" {
		row.UserID = &e.UserID
	}

	if r.DB != nil {
		if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
			r.log().Error("audit insert failed", "action", e.Action, "error", err)
		}
	}

	payload := map[string]any{
		"user_id":     e.UserID,
		"action":      e.Action,
		"type":        e.Type,
		"resource_id": e.ResourceID,
		"details":     e.Details,
		"ip":          e.IP,
		"agent":       e.Agent,
		"timestamp":   row.Timestamp.Format(time.RFC3339),
	}
	if err := r.Producer.PublishEvent(ctx, Topic, e.UserID, payload); err != nil {
		r.log().Error("audit publish failed", "action", e.Action, "error", err)
	}
}

func (r *Recorder) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

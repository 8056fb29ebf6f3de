package audit

import (
	"context"
	"log"
)

// Recorder durably records mutations as two parallel streams: a generic audit
// log and a per-appointment history timeline.
//
// Both record methods are fire-and-forget: write failures are logged and
// swallowed so that observability never gates the primary business operation.
type Recorder interface {
	Audit(ctx context.Context, entry Log)
	History(ctx context.Context, entry HistoryEntry)
	ListHistory(ctx context.Context, appointmentID string) ([]*HistoryEntry, error)
}

type recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) Recorder {
	return &recorder{repo: repo}
}

func (r *recorder) Audit(ctx context.Context, entry Log) {
	if err := r.repo.InsertLog(ctx, &entry); err != nil {
		log.Printf("failed to write audit log (entity=%s/%s action=%s): %v",
			entry.EntityType, entry.EntityID, entry.Action, err)
	}
}

func (r *recorder) History(ctx context.Context, entry HistoryEntry) {
	if err := r.repo.InsertHistory(ctx, &entry); err != nil {
		log.Printf("failed to write appointment history (appointment=%s action=%s): %v",
			entry.AppointmentID, entry.Action, err)
	}
}

// ListHistory returns an appointment's timeline, newest first.
func (r *recorder) ListHistory(ctx context.Context, appointmentID string) ([]*HistoryEntry, error) {
	return r.repo.ListHistory(ctx, appointmentID)
}

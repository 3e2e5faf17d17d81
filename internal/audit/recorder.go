package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"authcore/internal/events"
	"authcore/internal/logging"
	"authcore/internal/models"
)

// Recorder consumes domain events and writes the audit trail: one row per
// event in the database, plus an Elasticsearch document when an index is
// configured. Failures are logged, never propagated back to the emitting
// operation.
type Recorder struct {
	DB    *gorm.DB
	ES    *elasticsearch.Client
	Index string
}

func (r *Recorder) Handle(ctx context.Context, event events.Event) {
	l := logging.FromContext(ctx).With("svc", "audit", "action", event.Action)

	entry := models.AuthLog{
		Action:    event.Action,
		IP:        event.IP,
		UserAgent: event.UserAgent,
	}
	if id, err := uuid.Parse(event.UserID); err == nil {
		entry.UserID = &id
	}
	if len(event.Details) > 0 {
		if data, err := json.Marshal(event.Details); err == nil {
			entry.Details = string(data)
		}
	}

	if err := r.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		l.Error("audit_write_failed", "error", err)
		return
	}

	if r.ES != nil && r.Index != "" {
		if err := r.index(ctx, &entry); err != nil {
			l.Error("audit_index_failed", "error", err)
		}
	}
}

func (r *Recorder) index(ctx context.Context, entry *models.AuthLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	res, err := r.ES.Index(
		r.Index,
		bytes.NewReader(data),
		r.ES.Index.WithContext(ctx),
		r.ES.Index.WithDocumentID(fmt.Sprint(entry.ID)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index error: %s", res.Status())
	}
	return nil
}

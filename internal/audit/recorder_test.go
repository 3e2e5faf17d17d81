package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"authcore/internal/events"
	"authcore/internal/models"
)

func newTestRecorder(t *testing.T) (*Recorder, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuthLog{}))

	return &Recorder{DB: db}, db
}

func TestRecorder_PersistsEvent(t *testing.T) {
	t.Parallel()

	rec, db := newTestRecorder(t)
	userID := uuid.New()

	rec.Handle(context.Background(), events.Event{
		Action:    events.ActionRoleChanged,
		UserID:    userID.String(),
		Details:   map[string]any{"previousRole": "r1", "newRole": "r2"},
		IP:        "10.0.0.1",
		UserAgent: "curl/8.0",
	})

	var entry models.AuthLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, events.ActionRoleChanged, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)
	assert.Equal(t, "10.0.0.1", entry.IP)
	assert.Equal(t, "curl/8.0", entry.UserAgent)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(entry.Details), &details))
	assert.Equal(t, "r1", details["previousRole"])
	assert.Equal(t, "r2", details["newRole"])
}

func TestRecorder_ToleratesUnparsableUserID(t *testing.T) {
	t.Parallel()

	rec, db := newTestRecorder(t)

	rec.Handle(context.Background(), events.Event{
		Action: events.ActionLogin,
		UserID: "not-a-uuid",
	})

	var entry models.AuthLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, events.ActionLogin, entry.Action)
	assert.Nil(t, entry.UserID)
	assert.Empty(t, entry.Details)
}

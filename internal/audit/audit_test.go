package audit

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))
	return db
}

func TestRecordInsertsRow(t *testing.T) {
	db := newTestDB(t)
	r := &Recorder{DB: db}

	r.Record(context.Background(), Event{
		UserID:     "u1",
		Action:     "LOGIN",
		Type:       "auth",
		ResourceID: "u1",
		Details:    map[string]any{"reason": "ok"},
		IP:         "127.0.0.1",
		Agent:      "test-agent",
	})

	var rows []models.AuditLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "LOGIN", rows[0].Action)
	require.Equal(t, "u1", *rows[0].UserID)
	require.Contains(t, rows[0].Details, `"reason":"ok"`)
	require.False(t, rows[0].Timestamp.IsZero())
}

func TestRecordAnonymousEvent(t *testing.T) {
	db := newTestDB(t)
	r := &Recorder{DB: db}

	r.Record(context.Background(), Event{
		Action: "LOGIN_FAILED",
		Type:   "auth",
	})

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	require.Nil(t, row.UserID)
}

func TestRecordNilSafe(t *testing.T) {
	// a nil recorder and a recorder with no sinks both do nothing
	var nilRecorder *Recorder
	nilRecorder.Record(context.Background(), Event{Action: "LOGIN"})

	empty := &Recorder{}
	empty.Record(context.Background(), Event{Action: "LOGIN"})
}

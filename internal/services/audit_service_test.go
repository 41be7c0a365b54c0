package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dishpatch/dishpatch/internal/models"
)

func openAuditServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.AuditLog{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestAuditServiceLog(t *testing.T) {
	db := openAuditServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	account := models.Account{Name: "Pat", Email: "audit@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&account).Error)

	ctx := context.Background()
	err = svc.Log(ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.register",
		Resource:  account.Email,
		Result:    "success",
		Metadata:  map[string]any{"source": "api"},
	})
	require.NoError(t, err)

	var stored models.AuditLog
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, "account.register", stored.Action)
	require.Equal(t, account.ID, *stored.AccountID)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored.Metadata), &metadata))
	require.Equal(t, "api", metadata["source"])
}

func TestAuditServiceLogRequiresActionAndResult(t *testing.T) {
	db := openAuditServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.Error(t, svc.Log(context.Background(), AuditEntry{Result: "success"}))
	require.Error(t, svc.Log(context.Background(), AuditEntry{Action: "account.login"}))
}

func TestAuditServiceDeleteOlderThan(t *testing.T) {
	db := openAuditServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	old := models.AuditLog{Action: "account.login", Result: "success", CreatedAt: now.AddDate(0, 0, -10)}
	fresh := models.AuditLog{Action: "account.login", Result: "success", CreatedAt: now.AddDate(0, 0, -1)}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	rows, err := svc.DeleteOlderThan(context.Background(), now.AddDate(0, 0, -5))
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	var remaining int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}

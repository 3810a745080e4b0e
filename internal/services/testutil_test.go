package services

import (
	"testing"
	"time"
	"wallet-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存库在多连接下会各开各的库，限制为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Referrer{},
		&models.ReferralCode{},
		&models.PendingVisit{},
		&models.UserReferral{},
		&models.SystemConfig{},
	))

	return db
}

func createApprovedReferrer(t *testing.T, db *gorm.DB, userID uint) *models.Referrer {
	t.Helper()

	now := time.Now()
	referrer := &models.Referrer{
		UserID:     userID,
		IsApproved: true,
		ApprovedAt: &now,
	}
	require.NoError(t, db.Create(referrer).Error)
	return referrer
}

func createApprovedCode(t *testing.T, db *gorm.DB, referrerID uint, code string) *models.ReferralCode {
	t.Helper()

	now := time.Now()
	record := &models.ReferralCode{
		Code:       code,
		ReferrerID: referrerID,
		IsActive:   true,
		ApprovedAt: &now,
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

func createPendingCode(t *testing.T, db *gorm.DB, referrerID uint, code string) *models.ReferralCode {
	t.Helper()

	record := &models.ReferralCode{
		Code:       code,
		ReferrerID: referrerID,
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

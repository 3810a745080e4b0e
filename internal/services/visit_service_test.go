package services

import (
	"strings"
	"testing"
	"time"
	"wallet-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitService_Track(t *testing.T) {
	db := newTestDB(t)
	svc := NewVisitService(db, 15, 256)

	res := "1920x1080"
	visitID := svc.Track(&models.VisitSubmitRequest{
		Code:        "ABCD2345",
		Fingerprint: &models.Fingerprint{ScreenResolution: &res},
		Source:      strPtr("landing"),
		Params:      map[string]string{"utm_campaign": "spring"},
	}, "1.2.3.4", "UA-X")
	require.NotEmpty(t, visitID)

	var visit models.PendingVisit
	require.NoError(t, db.First(&visit, "id = ?", visitID).Error)
	assert.Equal(t, "ABCD2345", visit.ReferralCode)
	assert.Equal(t, "1.2.3.4", visit.IPAddress)
	assert.Equal(t, "UA-X", visit.UserAgent)
	require.NotNil(t, visit.ScreenResolution)
	assert.Equal(t, res, *visit.ScreenResolution)
	assert.Contains(t, visit.FullParams, "utm_campaign")

	// 过期时间按分钟级匹配窗口设定
	window := visit.ExpiresAt.Sub(visit.CreatedAt)
	assert.InDelta(t, (15 * time.Minute).Seconds(), window.Seconds(), 1)
}

func TestVisitService_TruncatesUserAgent(t *testing.T) {
	db := newTestDB(t)
	svc := NewVisitService(db, 15, 256)

	longUA := strings.Repeat("x", 500)
	visitID := svc.Track(&models.VisitSubmitRequest{Code: "ABCD2345"}, "1.2.3.4", longUA)
	require.NotEmpty(t, visitID)

	var visit models.PendingVisit
	require.NoError(t, db.First(&visit, "id = ?", visitID).Error)
	assert.Len(t, visit.UserAgent, 256)
}

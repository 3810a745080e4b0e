package services

import (
	"testing"
	"time"
	"wallet-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMatcher(db *gorm.DB) *MatchService {
	return NewMatchService(db, true, true, 10, 256)
}

func seedVisit(t *testing.T, db *gorm.DB, code, ip, ua string, resolution *string, expiresIn time.Duration) *models.PendingVisit {
	t.Helper()

	now := time.Now()
	visit := &models.PendingVisit{
		ID:               uuid.NewString(),
		ReferralCode:     code,
		IPAddress:        ip,
		UserAgent:        ua,
		ScreenResolution: resolution,
		CreatedAt:        now,
		ExpiresAt:        now.Add(expiresIn),
	}
	require.NoError(t, db.Create(visit).Error)
	return visit
}

func visitCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.PendingVisit{}).Count(&count).Error)
	return count
}

func TestMatchService_SingleCandidate(t *testing.T) {
	db := newTestDB(t)
	svc := newMatcher(db)
	seedVisit(t, db, "ABCD2345", "1.2.3.4", "UA-X", nil, 10*time.Minute)

	result := svc.Match("1.2.3.4", "UA-X", nil)
	require.True(t, result.Matched)
	require.NotNil(t, result.ReferralData)
	assert.Equal(t, "ABCD2345", result.ReferralData.Ref)

	// 命中后访问记录被删除，防止重放
	assert.Zero(t, visitCount(t, db))
}

func TestMatchService_RepeatRequestAfterMatch(t *testing.T) {
	db := newTestDB(t)
	svc := newMatcher(db)
	seedVisit(t, db, "ABCD2345", "1.2.3.4", "UA-X", nil, 10*time.Minute)

	first := svc.Match("1.2.3.4", "UA-X", nil)
	require.True(t, first.Matched)

	// 同样的请求立刻重来一次，必须落空
	second := svc.Match("1.2.3.4", "UA-X", nil)
	assert.False(t, second.Matched)
	assert.Equal(t, models.ReasonNoMatch, second.Reason)
}

func TestMatchService_StrictUAFiltersToOne(t *testing.T) {
	db := newTestDB(t)
	svc := newMatcher(db)
	seedVisit(t, db, "AAAA2345", "1.2.3.4", "UA-X", nil, 10*time.Minute)
	other := seedVisit(t, db, "BBBB2345", "1.2.3.4", "UA-Y", nil, 10*time.Minute)

	result := svc.Match("1.2.3.4", "UA-X", nil)
	require.True(t, result.Matched)
	assert.Equal(t, "AAAA2345", result.ReferralData.Ref)

	// 未命中的那条原样保留
	var remaining models.PendingVisit
	require.NoError(t, db.First(&remaining, "id = ?", other.ID).Error)
	assert.Equal(t, "BBBB2345", remaining.ReferralCode)
}

func TestMatchService_StrictUADisabled(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchService(db, true, false, 10, 256)
	seedVisit(t, db, "ABCD2345", "1.2.3.4", "UA-X", nil, 10*time.Minute)

	// 严格 UA 关闭时不同 UA 也能命中
	result := svc.Match("1.2.3.4", "UA-DIFFERENT", nil)
	assert.True(t, result.Matched)
}

func TestMatchService_AmbiguousReturnsMultiple(t *testing.T) {
	db := newTestDB(t)
	svc := newMatcher(db)
	seedVisit(t, db, "AAAA2345", "1.2.3.4", "UA-X", nil, 10*time.Minute)
	seedVisit(t, db, "BBBB2345", "1.2.3.4", "UA-X", nil, 10*time.Minute)

	result := svc.Match("1.2.3.4", "UA-X", nil)
	assert.False(t, result.Matched)
	assert.Equal(t, models.ReasonMultipleMatches, result.Reason)

	// 歧义时两条记录都不动，留给它们自然过期
	assert.EqualValues(t, 2, visitCount(t, db))
}

func TestMatchService_SecondarySignalNarrows(t *testing.T) {
	db := newTestDB(t)
	svc := newMatcher(db)
	res1 := "1920x1080"
	res2 := "390x844"
	seedVisit(t, db, "AAAA2345", "1.2.3.4", "UA-X", &res1, 10*time.Minute)
	seedVisit(t, db, "BBBB2345", "1.2.3.4", "UA-X", &res2, 10*time.Minute)

	result := svc.Match("1.2.3.4", "UA-X", &models.Fingerprint{ScreenResolution: &res2})
	require.True(t, result.Matched)
	assert.Equal(t, "BBBB2345", result.ReferralData.Ref)
}

func TestMatchService_UnhelpfulSignalKeepsWiderSet(t *testing.T) {
	db := newTestDB(t)
	svc := newMatcher(db)
	res := "1920x1080"
	seedVisit(t, db, "AAAA2345", "1.2.3.4", "UA-X", &res, 10*time.Minute)
	seedVisit(t, db, "BBBB2345", "1.2.3.4", "UA-X", &res, 10*time.Minute)

	// 收窄结果为空说明信号没用，保留原候选集，结果仍是歧义
	unknown := "800x600"
	result := svc.Match("1.2.3.4", "UA-X", &models.Fingerprint{ScreenResolution: &unknown})
	assert.False(t, result.Matched)
	assert.Equal(t, models.ReasonMultipleMatches, result.Reason)
	assert.EqualValues(t, 2, visitCount(t, db))
}

func TestMatchService_ExpiredVisitsExcluded(t *testing.T) {
	db := newTestDB(t)
	svc := newMatcher(db)
	seedVisit(t, db, "ABCD2345", "1.2.3.4", "UA-X", nil, -1*time.Minute)

	result := svc.Match("1.2.3.4", "UA-X", nil)
	assert.False(t, result.Matched)
	assert.Equal(t, models.ReasonNoMatch, result.Reason)
}

func TestMatchService_UnknownIP(t *testing.T) {
	db := newTestDB(t)
	svc := newMatcher(db)
	seedVisit(t, db, "ABCD2345", "1.2.3.4", "UA-X", nil, 10*time.Minute)

	result := svc.Match("unknown", "UA-X", nil)
	assert.False(t, result.Matched)
	assert.Equal(t, models.ReasonNoMatch, result.Reason)
}

func TestMatchService_Disabled(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchService(db, false, true, 10, 256)
	seedVisit(t, db, "ABCD2345", "1.2.3.4", "UA-X", nil, 10*time.Minute)

	result := svc.Match("1.2.3.4", "UA-X", nil)
	assert.False(t, result.Matched)
	assert.Equal(t, models.ReasonDisabled, result.Reason)

	// 关闭状态下不碰存储
	assert.EqualValues(t, 1, visitCount(t, db))
}

// 场景：T 时刻记录访问，T+2m 同指纹请求命中，重复请求落空
func TestMatchService_TrackThenMatchScenario(t *testing.T) {
	db := newTestDB(t)
	tracker := NewVisitService(db, 10, 256)
	matcher := newMatcher(db)

	visitID := tracker.Track(&models.VisitSubmitRequest{
		Code:   "ABCD2345",
		Tag:    strPtr("spring"),
		Params: map[string]string{"utm_source": "twitter"},
	}, "1.2.3.4", "UA-X")
	require.NotEmpty(t, visitID)

	result := matcher.Match("1.2.3.4", "UA-X", nil)
	require.True(t, result.Matched)
	require.NotNil(t, result.ReferralData)
	assert.Equal(t, "ABCD2345", result.ReferralData.Ref)
	require.NotNil(t, result.ReferralData.Tag)
	assert.Equal(t, "spring", *result.ReferralData.Tag)
	assert.Equal(t, "twitter", result.ReferralData.FullParams["utm_source"])
	assert.False(t, result.ReferralData.CapturedAt.IsZero())

	repeat := matcher.Match("1.2.3.4", "UA-X", nil)
	assert.False(t, repeat.Matched)
	assert.Equal(t, models.ReasonNoMatch, repeat.Reason)
}

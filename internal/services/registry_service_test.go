package services

import (
	"testing"
	"wallet-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRegistry(db *gorm.DB) *RegistryService {
	return NewRegistryService(db, NewCodeGenerator(8), 3)
}

func strPtr(s string) *string { return &s }

func TestRegistryService_RequestCode_AutoGenerated(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	createApprovedReferrer(t, db, 1)

	result, err := svc.RequestCode(1, &models.CodeRequestRequest{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "pending", result.Status)
	assert.True(t, svc.Generator().IsValidFormat(result.Code))
	assert.NotNil(t, result.RequestedAt)

	// 新记录未审批、未启用
	var record models.ReferralCode
	require.NoError(t, db.Where("code = ?", result.Code).First(&record).Error)
	assert.False(t, record.IsApproved())
	assert.False(t, record.IsActive)
}

func TestRegistryService_RequestCode_ReferrerNotApproved(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)

	// 没有推荐人记录
	result, err := svc.RequestCode(1, &models.CodeRequestRequest{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonNotApprovedYet, result.Reason)

	// 有记录但未审批
	require.NoError(t, db.Create(&models.Referrer{UserID: 2}).Error)
	result, err = svc.RequestCode(2, &models.CodeRequestRequest{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonNotApprovedYet, result.Reason)
}

func TestRegistryService_RequestCode_SelfChosenTaken(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	owner := createApprovedReferrer(t, db, 1)
	createApprovedReferrer(t, db, 2)
	createApprovedCode(t, db, owner.ID, "WALLET23")

	// 其他持有人申请已审批的同名码串
	result, err := svc.RequestCode(2, &models.CodeRequestRequest{Code: strPtr("WALLET23")})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonCodeTaken, result.Reason)
}

func TestRegistryService_RequestCode_PendingDuplicatesCoexist(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	first := createApprovedReferrer(t, db, 1)
	createApprovedReferrer(t, db, 2)
	createPendingCode(t, db, first.ID, "WALLET23")

	// 待审批的同名码串不同申请人可以共存
	result, err := svc.RequestCode(2, &models.CodeRequestRequest{Code: strPtr("WALLET23")})
	require.NoError(t, err)
	assert.True(t, result.Success)

	var count int64
	require.NoError(t, db.Model(&models.ReferralCode{}).Where("code = ?", "WALLET23").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestRegistryService_RequestCode_AlreadyRequested(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	referrer := createApprovedReferrer(t, db, 1)
	createPendingCode(t, db, referrer.ID, "WALLET23")

	result, err := svc.RequestCode(1, &models.CodeRequestRequest{Code: strPtr("WALLET23")})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonAlreadyRequested, result.Reason)
}

func TestRegistryService_RequestCode_QuotaExceeded(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	referrer := createApprovedReferrer(t, db, 1)
	createPendingCode(t, db, referrer.ID, "AAAA2345")
	createPendingCode(t, db, referrer.ID, "BBBB2345")
	createPendingCode(t, db, referrer.ID, "CCCC2345")

	result, err := svc.RequestCode(1, &models.CodeRequestRequest{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonQuotaExceeded, result.Reason)
}

func TestRegistryService_ApproveCode_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	referrer := createApprovedReferrer(t, db, 1)
	record := createPendingCode(t, db, referrer.ID, "WALLET23")

	result, err := svc.ApproveCode(record.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Reason)

	var approved models.ReferralCode
	require.NoError(t, db.First(&approved, record.ID).Error)
	require.True(t, approved.IsApproved())
	assert.True(t, approved.IsActive)
	firstApprovedAt := *approved.ApprovedAt

	// 重复审批返回 already_approved，状态不变
	result, err = svc.ApproveCode(record.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.ReasonAlreadyApproved, result.Reason)

	require.NoError(t, db.First(&approved, record.ID).Error)
	assert.Equal(t, firstApprovedAt.Unix(), approved.ApprovedAt.Unix())
}

func TestRegistryService_ApproveCode_Conflict(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	winner := createApprovedReferrer(t, db, 1)
	loser := createApprovedReferrer(t, db, 2)
	winnerRecord := createApprovedCode(t, db, winner.ID, "WALLET23")
	loserRecord := createPendingCode(t, db, loser.ID, "WALLET23")

	// 同名码串已被批给别人，冲突上浮而不是自动解决
	result, err := svc.ApproveCode(loserRecord.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonCodeTaken, result.Reason)
	require.NotNil(t, result.ConflictWith)
	assert.Equal(t, winnerRecord.ID, *result.ConflictWith)

	// 落败方仍处于待审批状态，没有被动过
	var pending models.ReferralCode
	require.NoError(t, db.First(&pending, loserRecord.ID).Error)
	assert.False(t, pending.IsApproved())
}

func TestRegistryService_RejectCode_FreesString(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	first := createApprovedReferrer(t, db, 1)
	createApprovedReferrer(t, db, 2)
	record := createPendingCode(t, db, first.ID, "WALLET23")

	result, err := svc.RejectCode(record.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	var count int64
	require.NoError(t, db.Model(&models.ReferralCode{}).Where("code = ?", "WALLET23").Count(&count).Error)
	assert.Zero(t, count)

	// 驳回后码串立即可被其他人申请
	requested, err := svc.RequestCode(2, &models.CodeRequestRequest{Code: strPtr("WALLET23")})
	require.NoError(t, err)
	assert.True(t, requested.Success)
}

func TestRegistryService_RejectCode_ApprovedNotRejectable(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	referrer := createApprovedReferrer(t, db, 1)
	record := createApprovedCode(t, db, referrer.ID, "WALLET23")

	result, err := svc.RejectCode(record.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonAlreadyApproved, result.Reason)
}

func TestRegistryService_UpdateCode_OwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	owner := createApprovedReferrer(t, db, 1)
	createApprovedReferrer(t, db, 2)
	createApprovedCode(t, db, owner.ID, "WALLET23")

	// 非持有人更新拿到 not_found
	result, err := svc.UpdateCode(2, "WALLET23", &models.CodeUpdateRequest{Label: strPtr("mine")})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonNotFound, result.Reason)

	// 持有人可以更新
	result, err = svc.UpdateCode(1, "WALLET23", &models.CodeUpdateRequest{Label: strPtr("campaign")})
	require.NoError(t, err)
	assert.True(t, result.Success)

	var record models.ReferralCode
	require.NoError(t, db.Where("code = ?", "WALLET23").First(&record).Error)
	require.NotNil(t, record.Label)
	assert.Equal(t, "campaign", *record.Label)
}

func TestRegistryService_UpdateCode_ActivationGatedByApproval(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	referrer := createApprovedReferrer(t, db, 1)
	createPendingCode(t, db, referrer.ID, "WALLET23")

	active := true
	result, err := svc.UpdateCode(1, "WALLET23", &models.CodeUpdateRequest{IsActive: &active})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ReasonCodeNotApproved, result.Reason)
}

func TestRegistryService_ListCodes_WithCounts(t *testing.T) {
	db := newTestDB(t)
	svc := newRegistry(db)
	referrer := createApprovedReferrer(t, db, 1)
	createApprovedCode(t, db, referrer.ID, "WALLET23")
	createPendingCode(t, db, referrer.ID, "PNDG2345")

	require.NoError(t, db.Create(&models.UserReferral{
		UserID:     10,
		CodeUsed:   "WALLET23",
		ReferrerID: referrer.ID,
	}).Error)

	approved, err := svc.ListCodes("approved")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "WALLET23", approved[0].Code)
	assert.EqualValues(t, 1, approved[0].Referred)

	pending, err := svc.ListCodes("pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "PNDG2345", pending[0].Code)
}

package services

import (
	"time"
	"wallet-backend/internal/models"

	"gorm.io/gorm"
)

// ReferrerService 负责推荐人资格的申请与审批
type ReferrerService struct {
	db *gorm.DB
}

func NewReferrerService(db *gorm.DB) *ReferrerService {
	return &ReferrerService{db: db}
}

// Request 申请推荐人资格，重复申请返回 already_requested
func (s *ReferrerService) Request(userID uint) (*models.ApproveResult, error) {
	var existing models.Referrer
	err := s.db.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		if existing.IsApproved {
			return &models.ApproveResult{Success: false, Reason: models.ReasonAlreadyApproved}, nil
		}
		return &models.ApproveResult{Success: false, Reason: models.ReasonAlreadyRequested}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	referrer := models.Referrer{UserID: userID}
	if err := s.db.Create(&referrer).Error; err != nil {
		return nil, err
	}
	return &models.ApproveResult{Success: true}, nil
}

// Approve 审批推荐人，幂等
func (s *ReferrerService) Approve(referrerID uint) (*models.ApproveResult, error) {
	var referrer models.Referrer
	if err := s.db.First(&referrer, referrerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.ApproveResult{Success: false, Reason: models.ReasonNotFound}, nil
		}
		return nil, err
	}

	if referrer.IsApproved {
		return &models.ApproveResult{Success: true, Reason: models.ReasonAlreadyApproved}, nil
	}

	now := time.Now()
	if err := s.db.Model(&referrer).Updates(map[string]interface{}{
		"is_approved": true,
		"approved_at": now,
	}).Error; err != nil {
		return nil, err
	}
	return &models.ApproveResult{Success: true}, nil
}

// Reject 驳回待审批的推荐人申请，删除记录
func (s *ReferrerService) Reject(referrerID uint) (*models.ApproveResult, error) {
	var referrer models.Referrer
	if err := s.db.First(&referrer, referrerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.ApproveResult{Success: false, Reason: models.ReasonNotFound}, nil
		}
		return nil, err
	}

	if referrer.IsApproved {
		return &models.ApproveResult{Success: false, Reason: models.ReasonAlreadyApproved}, nil
	}

	if err := s.db.Delete(&referrer).Error; err != nil {
		return nil, err
	}
	return &models.ApproveResult{Success: true}, nil
}

// SetNotify 持有人更新通知偏好
func (s *ReferrerService) SetNotify(userID uint, canNotify bool) (*models.ApproveResult, error) {
	var referrer models.Referrer
	if err := s.db.Where("user_id = ?", userID).First(&referrer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.ApproveResult{Success: false, Reason: models.ReasonNotFound}, nil
		}
		return nil, err
	}

	if err := s.db.Model(&referrer).Update("can_notify", canNotify).Error; err != nil {
		return nil, err
	}
	return &models.ApproveResult{Success: true}, nil
}

// List 管理端列表，status 取 pending/approved
func (s *ReferrerService) List(status string) ([]models.Referrer, error) {
	query := s.db.Model(&models.Referrer{}).Preload("User").Preload("Codes")
	switch status {
	case "pending":
		query = query.Where("is_approved = ?", false)
	case "approved":
		query = query.Where("is_approved = ?", true)
	}

	var referrers []models.Referrer
	err := query.Order("created_at DESC").Find(&referrers).Error
	return referrers, err
}

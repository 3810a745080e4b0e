package services

import (
	"time"
	"wallet-backend/internal/models"

	"gorm.io/gorm"
)

// LegacyCodeService 把旧的"一人一码"模式包装在推荐人注册表之上。
// 旧模式没有独立的推荐人审批环节，审批发生在码本身，所以这里按需
// 自动建立已生效的推荐人记录，然后复用注册表逻辑，配额固定为一。
type LegacyCodeService struct {
	db       *gorm.DB
	registry *RegistryService
}

func NewLegacyCodeService(db *gorm.DB, registry *RegistryService) *LegacyCodeService {
	return &LegacyCodeService{db: db, registry: registry}
}

// RequestCode 旧模式申请：用户已有任何记录即返回 already_requested
func (s *LegacyCodeService) RequestCode(userID uint, req *models.CodeRequestRequest) (*models.CodeRequestResult, error) {
	referrer, err := s.ensureReferrer(userID)
	if err != nil {
		return nil, err
	}

	var owned int64
	if err := s.db.Model(&models.ReferralCode{}).Where("referrer_id = ?", referrer.ID).Count(&owned).Error; err != nil {
		return nil, err
	}
	if owned > 0 {
		return &models.CodeRequestResult{Success: false, Reason: models.ReasonAlreadyRequested}, nil
	}

	return s.registry.RequestCode(userID, req)
}

func (s *LegacyCodeService) ensureReferrer(userID uint) (*models.Referrer, error) {
	var referrer models.Referrer
	err := s.db.Where("user_id = ?", userID).First(&referrer).Error
	if err == nil {
		return &referrer, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	now := time.Now()
	referrer = models.Referrer{
		UserID:     userID,
		IsApproved: true,
		ApprovedAt: &now,
	}
	if err := s.db.Create(&referrer).Error; err != nil {
		return nil, err
	}
	return &referrer, nil
}

package services

import (
	"encoding/json"
	"errors"
	"time"
	"wallet-backend/internal/models"

	"gorm.io/gorm"
)

// AttributionService 把确认过的推荐码固化成一条用户归因记录。
// 每个用户至多归因一次，首次成功后全部重复调用返回 already_attributed。
type AttributionService struct {
	db     *gorm.DB
	expiry time.Duration
}

func NewAttributionService(db *gorm.DB, expiryHours int) *AttributionService {
	return &AttributionService{
		db:     db,
		expiry: time.Duration(expiryHours) * time.Hour,
	}
}

// Convert 按顺序短路检查：过期 → 审批 → 唯一性，全部通过才落库。
// 归因记录和使用计数在同一事务内写入，计数漂移是推荐人可见的正确性问题。
func (s *AttributionService) Convert(userID uint, code string, capturedAt time.Time, data *models.ReferralData) (*models.ConvertResult, error) {
	// 1. 捕获时间超出归因窗口
	if time.Since(capturedAt) > s.expiry {
		return &models.ConvertResult{Attributed: false, Reason: models.ReasonExpired}, nil
	}

	// 2. 推荐码必须已审批且启用
	var record models.ReferralCode
	err := s.db.Where("code = ? AND approved_at IS NOT NULL", code).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return &models.ConvertResult{Attributed: false, Reason: models.ReasonNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return &models.ConvertResult{Attributed: false, Reason: models.ReasonCodeNotApproved}, nil
	}
	if record.ExpiresAt != nil && record.ExpiresAt.Before(time.Now()) {
		return &models.ConvertResult{Attributed: false, Reason: models.ReasonExpired}, nil
	}

	// 3. 首次归因有效，后续都是空操作
	var existing int64
	if err := s.db.Model(&models.UserReferral{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return &models.ConvertResult{Attributed: false, Reason: models.ReasonAlreadyAttributed}, nil
	}

	referral := models.UserReferral{
		UserID:      userID,
		CodeUsed:    record.Code,
		ReferrerID:  record.ReferrerID,
		ReferredAt:  capturedAt,
		ConvertedAt: time.Now(),
	}
	if data != nil {
		referral.CustomTag = data.Tag
		referral.Source = data.Source
		if len(data.FullParams) > 0 {
			if raw, err := json.Marshal(data.FullParams); err == nil {
				referral.FullParams = string(raw)
			}
		}
	}

	// 4. 归因记录和计数同一事务
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}
		return tx.Model(&models.ReferralCode{}).
			Where("id = ?", record.ID).
			Update("usage_count", gorm.Expr("usage_count + 1")).Error
	})
	if err != nil {
		// 并发竞争撞上 user_id 唯一索引，当作已归因处理
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &models.ConvertResult{Attributed: false, Reason: models.ReasonAlreadyAttributed}, nil
		}
		return nil, err
	}

	return &models.ConvertResult{Attributed: true}, nil
}

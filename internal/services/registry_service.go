package services

import (
	"time"
	"wallet-backend/internal/models"

	"gorm.io/gorm"
)

// RegistryService 负责推荐码记录的申请、审批与归属管理。
// 状态机：无 → 待审批 → 已审批 / 驳回（删除记录，码串立即释放）。
type RegistryService struct {
	db       *gorm.DB
	gen      *CodeGenerator
	maxCodes int
}

func NewRegistryService(db *gorm.DB, gen *CodeGenerator, maxCodes int) *RegistryService {
	return &RegistryService{db: db, gen: gen, maxCodes: maxCodes}
}

func (s *RegistryService) Generator() *CodeGenerator {
	return s.gen
}

// RequestCode 申请推荐码。wanted 为空时由服务端生成。
// 唯一性谓词在提交前于同一事务内复核，防止并发申请撞码。
func (s *RegistryService) RequestCode(userID uint, req *models.CodeRequestRequest) (*models.CodeRequestResult, error) {
	var referrer models.Referrer
	if err := s.db.Where("user_id = ?", userID).First(&referrer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.CodeRequestResult{Success: false, Reason: models.ReasonNotApprovedYet}, nil
		}
		return nil, err
	}
	if !referrer.IsApproved {
		return &models.CodeRequestResult{Success: false, Reason: models.ReasonNotApprovedYet}, nil
	}

	// 配额检查，待审批和已审批的都计入，超额直接拒绝不排队
	var owned int64
	if err := s.db.Model(&models.ReferralCode{}).Where("referrer_id = ?", referrer.ID).Count(&owned).Error; err != nil {
		return nil, err
	}
	if owned >= int64(s.maxCodes) {
		return &models.CodeRequestResult{Success: false, Reason: models.ReasonQuotaExceeded}, nil
	}

	var code string
	if req.Code != nil {
		code = *req.Code
	} else {
		generated, err := s.gen.GenerateUnique(s.db)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	result := &models.CodeRequestResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 同一持有人重复申请同一码串
		var own int64
		if err := tx.Model(&models.ReferralCode{}).
			Where("code = ? AND referrer_id = ?", code, referrer.ID).
			Count(&own).Error; err != nil {
			return err
		}
		if own > 0 {
			result.Success = false
			result.Reason = models.ReasonAlreadyRequested
			return nil
		}

		// 其他持有人名下已有审批通过的同名码串
		var taken int64
		if err := tx.Model(&models.ReferralCode{}).
			Where("code = ? AND referrer_id <> ? AND approved_at IS NOT NULL", code, referrer.ID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			result.Success = false
			result.Reason = models.ReasonCodeTaken
			return nil
		}

		record := models.ReferralCode{
			Code:       code,
			ReferrerID: referrer.ID,
			Label:      req.Label,
			IsActive:   false,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		result.Success = true
		result.Status = "pending"
		result.Code = record.Code
		result.RequestedAt = &record.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApproveCode 审批推荐码，幂等。并发场景下同名码串可能已被
// 另一位管理员批给别人，复核失败返回 code_taken 由管理员处理。
func (s *RegistryService) ApproveCode(codeID uint) (*models.ApproveResult, error) {
	result := &models.ApproveResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var record models.ReferralCode
		if err := tx.First(&record, codeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				result.Success = false
				result.Reason = models.ReasonNotFound
				return nil
			}
			return err
		}

		if record.IsApproved() {
			result.Success = true
			result.Reason = models.ReasonAlreadyApproved
			return nil
		}

		// 提交前复核：是否已有其他审批通过的同名码串
		var conflict models.ReferralCode
		err := tx.Where("code = ? AND id <> ? AND approved_at IS NOT NULL", record.Code, record.ID).
			First(&conflict).Error
		if err == nil {
			result.Success = false
			result.Reason = models.ReasonCodeTaken
			result.ConflictWith = &conflict.ID
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		now := time.Now()
		if err := tx.Model(&record).Updates(map[string]interface{}{
			"approved_at": now,
			"is_active":   true,
		}).Error; err != nil {
			return err
		}

		result.Success = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RejectCode 驳回待审批的推荐码，删除记录并立即释放码串
func (s *RegistryService) RejectCode(codeID uint) (*models.ApproveResult, error) {
	var record models.ReferralCode
	if err := s.db.First(&record, codeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.ApproveResult{Success: false, Reason: models.ReasonNotFound}, nil
		}
		return nil, err
	}

	// 已审批的不能驳回，只能停用
	if record.IsApproved() {
		return &models.ApproveResult{Success: false, Reason: models.ReasonAlreadyApproved}, nil
	}

	if err := s.db.Delete(&record).Error; err != nil {
		return nil, err
	}
	return &models.ApproveResult{Success: true}, nil
}

// UpdateCode 持有人更新标签或启停状态
func (s *RegistryService) UpdateCode(userID uint, code string, req *models.CodeUpdateRequest) (*models.ApproveResult, error) {
	var referrer models.Referrer
	if err := s.db.Where("user_id = ?", userID).First(&referrer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.ApproveResult{Success: false, Reason: models.ReasonNotFound}, nil
		}
		return nil, err
	}

	var record models.ReferralCode
	if err := s.db.Where("code = ? AND referrer_id = ?", code, referrer.ID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.ApproveResult{Success: false, Reason: models.ReasonNotFound}, nil
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.IsActive != nil {
		// 审批之前不允许启用
		if !record.IsApproved() && *req.IsActive {
			return &models.ApproveResult{Success: false, Reason: models.ReasonCodeNotApproved}, nil
		}
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return &models.ApproveResult{Success: true}, nil
	}

	if err := s.db.Model(&record).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &models.ApproveResult{Success: true}, nil
}

// ListOwn 列出持有人自己的推荐码
func (s *RegistryService) ListOwn(userID uint) ([]models.ReferralCode, error) {
	var referrer models.Referrer
	if err := s.db.Where("user_id = ?", userID).First(&referrer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return []models.ReferralCode{}, nil
		}
		return nil, err
	}

	var codes []models.ReferralCode
	err := s.db.Where("referrer_id = ?", referrer.ID).Order("created_at DESC").Find(&codes).Error
	return codes, err
}

// ListCodes 管理端列表，status 取 pending/approved，附带归因计数
func (s *RegistryService) ListCodes(status string) ([]models.CodeListItem, error) {
	query := s.db.Model(&models.ReferralCode{})
	switch status {
	case "pending":
		query = query.Where("approved_at IS NULL")
	case "approved":
		query = query.Where("approved_at IS NOT NULL")
	}

	var codes []models.ReferralCode
	if err := query.Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}

	// 按码串聚合归因数，避免逐条查询
	type codeCount struct {
		CodeUsed string
		Count    int64
	}
	var counts []codeCount
	if err := s.db.Model(&models.UserReferral{}).
		Select("code_used, COUNT(*) as count").
		Group("code_used").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	countByCode := make(map[string]int64, len(counts))
	for _, c := range counts {
		countByCode[c.CodeUsed] = c.Count
	}

	items := make([]models.CodeListItem, 0, len(codes))
	for _, c := range codes {
		items = append(items, models.CodeListItem{
			ID:         c.ID,
			Code:       c.Code,
			ReferrerID: c.ReferrerID,
			Label:      c.Label,
			IsActive:   c.IsActive,
			UsageCount: c.UsageCount,
			Referred:   countByCode[c.Code],
			CreatedAt:  c.CreatedAt,
			ApprovedAt: c.ApprovedAt,
		})
	}
	return items, nil
}

// Stats 持有人可见的统计，只返回计数
func (s *RegistryService) Stats(userID uint) (*models.ReferrerStats, error) {
	stats := &models.ReferrerStats{UsageByCode: map[string]int64{}}

	var referrer models.Referrer
	if err := s.db.Where("user_id = ?", userID).First(&referrer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return stats, nil
		}
		return nil, err
	}

	var codes []models.ReferralCode
	if err := s.db.Where("referrer_id = ?", referrer.ID).Find(&codes).Error; err != nil {
		return nil, err
	}

	for _, c := range codes {
		stats.TotalCodes++
		if c.IsActive {
			stats.ActiveCodes++
		}
		stats.UsageByCode[c.Code] = int64(c.UsageCount)
	}

	if err := s.db.Model(&models.UserReferral{}).
		Where("referrer_id = ?", referrer.ID).
		Count(&stats.TotalReferred).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

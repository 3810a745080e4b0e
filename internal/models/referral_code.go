package models

import "time"

// ReferralCode 推荐码记录。code 字段只有已审批的记录要求全局唯一，
// 待审批的重复申请允许共存，唯一性在审批事务内复核。
type ReferralCode struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Code       string     `json:"code" gorm:"size:16;not null;index"`
	ReferrerID uint       `json:"referrer_id" gorm:"not null;index"`
	Label      *string    `json:"label" gorm:"size:100"`
	IsActive   bool       `json:"is_active" gorm:"default:false"`
	ExpiresAt  *time.Time `json:"expires_at"`
	UsageCount int        `json:"usage_count" gorm:"default:0"`
	CreatedAt  time.Time  `json:"created_at"`
	ApprovedAt *time.Time `json:"approved_at" gorm:"index"`

	// 关联
	Referrer Referrer `json:"referrer,omitempty" gorm:"foreignKey:ReferrerID"`
}

func (c *ReferralCode) IsApproved() bool {
	return c.ApprovedAt != nil
}

type CodeRequestRequest struct {
	// 为空则由服务端生成
	Code  *string `json:"code" validate:"omitempty,refcode"`
	Label *string `json:"label" validate:"omitempty,max=100"`
}

type CodeUpdateRequest struct {
	Label    *string `json:"label" validate:"omitempty,max=100"`
	IsActive *bool   `json:"is_active"`
}

// CodeRequestResult 申请推荐码的业务结果，reason 为业务原因而非错误
type CodeRequestResult struct {
	Success     bool       `json:"success"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status,omitempty"`
	Code        string     `json:"code,omitempty"`
	RequestedAt *time.Time `json:"requested_at,omitempty"`
}

// ApproveResult 审批结果。冲突时带上胜出记录的 ID，由管理员自行处理
type ApproveResult struct {
	Success      bool   `json:"success"`
	Reason       string `json:"reason,omitempty"`
	ConflictWith *uint  `json:"conflict_with,omitempty"`
}

// CodeListItem 管理端列表项，附带使用计数
type CodeListItem struct {
	ID         uint       `json:"id"`
	Code       string     `json:"code"`
	ReferrerID uint       `json:"referrer_id"`
	Label      *string    `json:"label"`
	IsActive   bool       `json:"is_active"`
	UsageCount int        `json:"usage_count"`
	Referred   int64      `json:"referred"`
	CreatedAt  time.Time  `json:"created_at"`
	ApprovedAt *time.Time `json:"approved_at"`
}

// 业务结果原因常量
const (
	ReasonCodeTaken         = "code_taken"
	ReasonAlreadyRequested  = "already_requested"
	ReasonAlreadyApproved   = "already_approved"
	ReasonNotFound          = "not_found"
	ReasonCodeNotApproved   = "code_not_approved"
	ReasonAlreadyAttributed = "already_attributed"
	ReasonExpired           = "expired"
	ReasonQuotaExceeded     = "quota_exceeded"
	ReasonNotApprovedYet    = "referrer_not_approved"
	ReasonNoMatch           = "no_match"
	ReasonMultipleMatches   = "multiple_matches"
	ReasonDisabled          = "disabled"
)

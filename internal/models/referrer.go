package models

import "time"

type Referrer struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	IsApproved bool       `json:"is_approved" gorm:"default:false"`
	CanNotify  bool       `json:"can_notify" gorm:"default:false"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// 关联
	User  User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Codes []ReferralCode `json:"codes,omitempty" gorm:"foreignKey:ReferrerID"`
}

type ReferrerNotifyRequest struct {
	CanNotify bool `json:"can_notify"`
}

// ReferrerStats 推荐人可见的统计数据，只返回计数
type ReferrerStats struct {
	TotalCodes    int64            `json:"total_codes"`
	ActiveCodes   int64            `json:"active_codes"`
	TotalReferred int64            `json:"total_referred"`
	UsageByCode   map[string]int64 `json:"usage_by_code"`
}

package models

import "time"

// UserReferral 每个用户至多一条，首次归因成功后不可变
type UserReferral struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	CodeUsed    string    `json:"code_used" gorm:"size:16;not null;index"`
	ReferrerID  uint      `json:"referrer_id" gorm:"not null;index"`
	CustomTag   *string   `json:"custom_tag" gorm:"size:100"`
	Source      *string   `json:"source" gorm:"size:100"`
	FullParams  string    `json:"full_params" gorm:"type:text"`
	ReferredAt  time.Time `json:"referred_at"`
	ConvertedAt time.Time `json:"converted_at"`

	// 关联
	User     User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Referrer Referrer `json:"referrer,omitempty" gorm:"foreignKey:ReferrerID"`
}

type ConvertRequest struct {
	Code         *string       `json:"code" validate:"omitempty,refcode"`
	ReferralData *ReferralData `json:"referral_data"`
	CapturedAt   *time.Time    `json:"captured_at"`
}

type ConvertResult struct {
	Attributed bool   `json:"attributed"`
	Reason     string `json:"reason,omitempty"`
}

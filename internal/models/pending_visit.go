package models

import "time"

// PendingVisit 未归因的访问记录，只在浏览器到安装之间的短窗口内有效。
// 创建后不再修改，命中匹配时删除，过期靠查询过滤。
type PendingVisit struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	ReferralCode     string    `json:"referral_code" gorm:"size:16;not null;index"`
	IPAddress        string    `json:"ip_address" gorm:"size:64;not null;index"`
	UserAgent        string    `json:"user_agent" gorm:"size:256"`
	ScreenResolution *string   `json:"screen_resolution" gorm:"size:32"`
	CustomTag        *string   `json:"custom_tag" gorm:"size:100"`
	Source           *string   `json:"source" gorm:"size:100"`
	FullParams       string    `json:"full_params" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at" gorm:"index"`
}

type Fingerprint struct {
	ScreenResolution *string `json:"screen_resolution" validate:"omitempty,max=32"`
}

type VisitSubmitRequest struct {
	Code        string            `json:"code" validate:"required,refcode"`
	Fingerprint *Fingerprint      `json:"fingerprint"`
	Tag         *string           `json:"tag" validate:"omitempty,max=100"`
	Source      *string           `json:"source" validate:"omitempty,max=100"`
	Params      map[string]string `json:"params"`
}

type VisitSubmitResponse struct {
	Success bool   `json:"success"`
	VisitID string `json:"visit_id,omitempty"`
}

type MatchRequest struct {
	Fingerprint *Fingerprint `json:"fingerprint"`
}

// ReferralData 匹配成功后返回给客户端的推荐信息，随后原样提交转化
type ReferralData struct {
	Ref        string            `json:"ref"`
	Tag        *string           `json:"tag,omitempty"`
	Source     *string           `json:"source,omitempty"`
	FullParams map[string]string `json:"full_params,omitempty"`
	CapturedAt time.Time         `json:"captured_at"`
}

type MatchResult struct {
	Matched      bool          `json:"matched"`
	Reason       string        `json:"reason,omitempty"`
	ReferralData *ReferralData `json:"referral_data,omitempty"`
}

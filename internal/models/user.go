package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	Avatar       *string        `json:"avatar" gorm:"size:255"`
	Role         string         `json:"role" gorm:"size:20;default:user"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// 关联
	Referrer *Referrer     `json:"referrer,omitempty" gorm:"foreignKey:UserID"`
	Referral *UserReferral `json:"referral,omitempty" gorm:"foreignKey:UserID"`
}

type UserRegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`

	// 注册时可携带推荐信息，归因失败不影响注册
	ReferralCode *string    `json:"referral_code" validate:"omitempty,refcode"`
	CapturedAt   *time.Time `json:"captured_at"`
}

type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

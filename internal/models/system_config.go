package models

import "time"

type SystemConfig struct {
	Key         string    `json:"key" gorm:"primaryKey;size:100"`
	Value       string    `json:"value" gorm:"type:text"`
	Description string    `json:"description" gorm:"type:text"`
	UpdatedAt   time.Time `json:"updated_at"`
}

package models

import "time"

// Ban marks a user as permanently blocked from relaying messages.
// The existence of a row is the only "is banned" predicate.
type Ban struct {
	UserID   int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Reason   string    `gorm:"type:text" json:"reason"`
	BannedAt time.Time `gorm:"autoCreateTime" json:"banned_at"`
}

// TableName - set the table name.
func (Ban) TableName() string {
	return "banned_users"
}

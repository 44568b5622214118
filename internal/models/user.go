package models

import "time"

// User is a Telegram user who has interacted with the bot.
// Rows are inserted on first contact and never updated afterwards.
type User struct {
	// UserID is the stable Telegram user ID.
	UserID int64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	// Username is the Telegram @handle without the leading "@", may be empty.
	Username string `json:"username"`
	// FirstName and LastName are the profile names reported by Telegram.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// RegisteredAt is set by GORM when the row is created.
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registered_at"`
}

// TableName keeps the table name stable regardless of GORM naming strategy.
func (User) TableName() string {
	return "users"
}

// Sender is the identity attached to an inbound Telegram message.
type Sender struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// User converts the sender into a User row ready for insertion.
func (s Sender) User() *User {
	return &User{
		UserID:    s.ID,
		Username:  s.Username,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// MessageStatus is the moderation state of a relayed message.
type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusReplied MessageStatus = "replied"
	StatusDone    MessageStatus = "done"
	StatusBanned  MessageStatus = "banned"
)

// Message is one anonymous submission relayed to the administrator.
type Message struct {
	// ID is the auto-incremented message ID.
	ID uint `gorm:"primaryKey;autoIncrement" json:"message_id"`
	// UserID is the Telegram ID of the author.
	UserID int64 `gorm:"not null;index" json:"user_id"`
	// AnonID is the anonymous token generated for this submission.
	AnonID string `gorm:"size:16;not null;index" json:"anon_id"`
	// ContentType tells how Content must be interpreted.
	ContentType ContentType `gorm:"size:16;not null" json:"content_type"`
	// Content is the text body, the Telegram file ID for media,
	// or the Telegram message type for unknown content.
	Content string `gorm:"type:text" json:"content"`
	// Caption is the media caption, if any.
	Caption string `gorm:"type:text" json:"caption,omitempty"`
	// FileName is set for documents.
	FileName string `json:"file_name,omitempty"`
	// AdminResponse holds the administrator's reply once sent.
	AdminResponse *string `gorm:"type:text" json:"admin_response,omitempty"`
	// Status is the moderation state, see MessageStatus.
	Status MessageStatus `gorm:"size:16;not null;index" json:"status"`
	// SentAt is the submission time, used to pick the most recent pending row.
	SentAt time.Time `gorm:"autoCreateTime;index" json:"sent_at"`
}

// TableName - set the table name.
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate is a GORM hook that makes every new message start as pending.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.Status == "" {
		m.Status = StatusPending
	}
	return
}

// NewMessage builds a pending message row for the given content.
func NewMessage(userID int64, anonID string, c Content) *Message {
	m := &Message{
		UserID:      userID,
		AnonID:      anonID,
		ContentType: c.Type(),
		Status:      StatusPending,
	}
	switch v := c.(type) {
	case Text:
		m.Content = v.Body
	case Photo:
		m.Content = v.FileID
		m.Caption = v.Caption
	case Video:
		m.Content = v.FileID
		m.Caption = v.Caption
	case Document:
		m.Content = v.FileID
		m.Caption = v.Caption
		m.FileName = v.FileName
	case Unknown:
		m.Content = v.Kind
	}
	return m
}

// Payload rebuilds the Content variant stored in the row.
func (m *Message) Payload() Content {
	switch m.ContentType {
	case ContentText:
		return Text{Body: m.Content}
	case ContentPhoto:
		return Photo{FileID: m.Content, Caption: m.Caption}
	case ContentVideo:
		return Video{FileID: m.Content, Caption: m.Caption}
	case ContentDocument:
		return Document{FileID: m.Content, FileName: m.FileName, Caption: m.Caption}
	default:
		return Unknown{Kind: m.Content}
	}
}

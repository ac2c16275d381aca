package dbmysql

import (
	"time"
)

type Message struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID string `gorm:"index;size:36"`
	Sender         string `gorm:"index;size:50"`
	Receiver       string `gorm:"size:50"`
	Content        string `gorm:"type:text"`
	SentAt         time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

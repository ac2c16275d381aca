package dbmysql

import (
	"time"

	"showme/internal/common"
)

// Notification rows are created server-side on a triggering event (a follow,
// a message) and delivered to the client via the poll listing or the push
// socket. Read stays false until the owner marks it.
type Notification struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;index"`
	Sender    *string `gorm:"size:50"`
	Type      string  `gorm:"not null;size:20"`
	Content   string  `gorm:"type:text"`
	Read      bool    `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToWire converts the row to the shape shared by the REST listing and the
// push envelope.
func (n *Notification) ToWire() common.Notification {
	wire := common.Notification{
		ID:        n.ID,
		Type:      common.NotificationType(n.Type),
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		Read:      n.Read,
	}
	if n.Sender != nil {
		wire.Sender = common.NewIdentity(*n.Sender)
	}
	return wire
}

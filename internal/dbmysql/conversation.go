package dbmysql

import (
	"sort"
	"strings"
	"time"
)

// Conversation is a direct-message room between exactly two participants.
// Name is deterministic for a participant pair, so the same pair always maps
// to the same row whichever side opened the channel first.
type Conversation struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"uniqueIndex;size:120"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomName builds the canonical conversation name for a participant pair:
// the two usernames sorted and joined with an underscore.
func RoomName(username1, username2 string) string {
	parts := []string{username1, username2}
	sort.Strings(parts)
	return strings.Join(parts, "_")
}

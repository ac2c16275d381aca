package di

import (
	"gorm.io/gorm"

	chathandler "showme/internal/chat/handler"
	"showme/internal/config"
	"showme/internal/dbmysql"
	"showme/internal/notif"
)

// Application bundles everything the server binary wires together.
type Application struct {
	Config       *config.Config
	DB           *gorm.DB
	Chat         *chathandler.ChatHandler
	ChatHub      *chathandler.Hub
	Notif        *notif.NotificationHandler
	NotifHub     *notif.Hub
	NotifService *notif.NotificationService
}

// ProvideNotificationRepository adapts the concrete gorm repository to the
// interface the notification service consumes.
func ProvideNotificationRepository(db *gorm.DB) notif.NotificationRepository {
	return dbmysql.NewNotificationRepository(db)
}

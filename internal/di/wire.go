//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	chathandler "showme/internal/chat/handler"
	"showme/internal/chat/repository"
	"showme/internal/chat/service"
	"showme/internal/config"
	"showme/internal/dbmysql"
	"showme/internal/notif"
)

// InitializeApplication is a declaration only; wire generates the real body
// in wire_gen.go.
func InitializeApplication() (*Application, error) {
	wire.Build(
		config.Load,
		dbmysql.NewMySQL,
		repository.NewChatRepository,
		service.NewChatService,
		chathandler.NewHub,
		chathandler.NewChatHandler,
		notif.NewHub,
		ProvideNotificationRepository,
		notif.NewNotificationService,
		notif.NewNotificationHandler,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}

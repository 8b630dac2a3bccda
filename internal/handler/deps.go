package handler

import (
	"dmchat/internal/app/chat"
	"dmchat/internal/app/message"
	"dmchat/internal/app/storage"
	"dmchat/internal/configs"
)

type AppDeps struct {
	Hub          *chat.Hub
	Config       *configs.AppConfig
	Messages     message.Store
	ImageStorage storage.ImageStorage
}

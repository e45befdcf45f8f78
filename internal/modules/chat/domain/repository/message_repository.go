package repository

import chatEntity "PricePilot/internal/modules/chat/domain/entity"

type MessageRepository interface {
	Create(message *chatEntity.Message) error
	ListByUser(userUuid string, page int, pageSize int) ([]chatEntity.Message, error)
}

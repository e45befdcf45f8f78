package persistence

import (
	chatEntity "PricePilot/internal/modules/chat/domain/entity"
	chatRepository "PricePilot/internal/modules/chat/domain/repository"

	"gorm.io/gorm"
)

type messageRepositoryImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) chatRepository.MessageRepository {
	return &messageRepositoryImpl{db: db}
}

func (r *messageRepositoryImpl) Create(message *chatEntity.Message) error {
	return r.db.Create(message).Error
}

func (r *messageRepositoryImpl) ListByUser(userUuid string, page int, pageSize int) ([]chatEntity.Message, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var msgs []chatEntity.Message
	err := r.db.
		Where("user_uuid = ?", userUuid).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

package service

import (
	"PricePilot/internal/modules/chat/application/dto/respond"
	"PricePilot/internal/modules/chat/domain/repository"
	"PricePilot/pkg/xerr"
	"PricePilot/pkg/zlog"
	"strings"
)

// HistoryService 提问历史查询服务
type HistoryService interface {
	GetMessageList(userUuid string, page int, pageSize int) ([]respond.MessageItem, error)
}

type historyServiceImpl struct {
	repo repository.MessageRepository
}

func NewHistoryService(repo repository.MessageRepository) HistoryService {
	return &historyServiceImpl{repo: repo}
}

func (s *historyServiceImpl) GetMessageList(userUuid string, page int, pageSize int) ([]respond.MessageItem, error) {
	if strings.TrimSpace(userUuid) == "" {
		return nil, xerr.ErrParam
	}

	msgs, err := s.repo.ListByUser(userUuid, page, pageSize)
	if err != nil {
		zlog.Error(err.Error())
		return nil, xerr.ErrServerError
	}

	items := make([]respond.MessageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, respond.MessageItem{
			Uuid:      m.Uuid,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return items, nil
}

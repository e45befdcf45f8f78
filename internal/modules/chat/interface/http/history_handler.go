package http

import (
	"PricePilot/internal/modules/chat/application/dto/request"
	"PricePilot/internal/modules/chat/application/service"
	"PricePilot/pkg/back"
	"PricePilot/pkg/xerr"
	"PricePilot/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	svc service.HistoryService
}

func NewHistoryHandler(svc service.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

func (h *HistoryHandler) GetMessageList(c *gin.Context) {
	var req request.GetMessageListRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.GetMessageList(c.GetString("uuid"), req.Page, req.PageSize)
	back.Result(c, data, err)
}

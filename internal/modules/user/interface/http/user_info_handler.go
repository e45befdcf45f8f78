package http

import (
	"strings"

	"PricePilot/internal/modules/user/application/dto/request"
	"PricePilot/internal/modules/user/application/service"
	"PricePilot/pkg/back"
	"PricePilot/pkg/xerr"
	"PricePilot/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type UserInfoHandler struct {
	svc service.UserInfoService
}

func NewUserInfoHandler(svc service.UserInfoService) *UserInfoHandler {
	return &UserInfoHandler{svc: svc}
}

func (h *UserInfoHandler) Register(c *gin.Context) {
	var registerReq request.RegisterRequest
	if err := c.BindJSON(&registerReq); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Register(registerReq)
	back.Result(c, data, err)
}

func (h *UserInfoHandler) Login(c *gin.Context) {
	var loginReq request.LoginRequest
	if err := c.BindJSON(&loginReq); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Login(loginReq)
	back.Result(c, data, err)
}

// ValidateToken 校验 Authorization 头中的 Bearer 令牌
func (h *UserInfoHandler) ValidateToken(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	data, err := h.svc.ValidateToken(token)
	back.Result(c, data, err)
}

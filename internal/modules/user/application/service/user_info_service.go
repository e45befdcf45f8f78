package service

import (
	"errors"
	"strings"
	"time"

	"PricePilot/internal/modules/user/application/dto/request"
	"PricePilot/internal/modules/user/application/dto/respond"
	"PricePilot/internal/modules/user/domain/entity"
	"PricePilot/internal/modules/user/domain/repository"
	"PricePilot/pkg/util"
	"PricePilot/pkg/util/myjwt"
	"PricePilot/pkg/xerr"
	"PricePilot/pkg/zlog"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserInfoService 接口定义 (Application Service)
type UserInfoService interface {
	Register(registerReq request.RegisterRequest) (*respond.RegisterRespond, error)
	Login(loginReq request.LoginRequest) (*respond.LoginRespond, error)
	ValidateToken(token string) (*respond.ValidateTokenRespond, error)
}

type userInfoServiceImpl struct {
	repo repository.UserInfoRepository
}

// NewUserInfoService 构造函数
func NewUserInfoService(repo repository.UserInfoRepository) UserInfoService {
	return &userInfoServiceImpl{repo: repo}
}

func (u *userInfoServiceImpl) Register(registerReq request.RegisterRequest) (*respond.RegisterRespond, error) {
	email := strings.ToLower(strings.TrimSpace(registerReq.Email))

	// 1. 邮箱查重
	_, err := u.repo.GetUserInfoByEmail(email)
	if err == nil {
		return nil, xerr.ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zlog.Error("查询用户失败", zap.String("email", email), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	// 2. 密码哈希
	hashed, err := bcrypt.GenerateFromPassword([]byte(registerReq.Password), bcrypt.DefaultCost)
	if err != nil {
		zlog.Error("密码哈希失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	newUser := entity.UserInfo{
		Uuid:      util.GenerateUUID(),
		Name:      registerReq.Name,
		Email:     email,
		Mobile:    registerReq.Mobile,
		Password:  string(hashed),
		CreatedAt: time.Now(),
	}

	if err := u.repo.CreateUserInfo(&newUser); err != nil {
		zlog.Error("创建用户失败", zap.String("email", email), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	token, err := myjwt.GenerateToken(newUser.Uuid, newUser.Email)
	if err != nil {
		zlog.Error("生成令牌失败", zap.String("uuid", newUser.Uuid), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	zlog.Info("用户注册成功", zap.String("uuid", newUser.Uuid), zap.String("email", email))
	return &respond.RegisterRespond{
		Uuid:  newUser.Uuid,
		Name:  newUser.Name,
		Email: newUser.Email,
		Token: token,
	}, nil
}

func (u *userInfoServiceImpl) Login(loginReq request.LoginRequest) (*respond.LoginRespond, error) {
	email := strings.ToLower(strings.TrimSpace(loginReq.Email))

	user, err := u.repo.GetUserInfoByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrBadLogin
		}
		zlog.Error("查询用户失败", zap.String("email", email), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginReq.Password)); err != nil {
		return nil, xerr.ErrBadLogin
	}

	token, err := myjwt.GenerateToken(user.Uuid, user.Email)
	if err != nil {
		zlog.Error("生成令牌失败", zap.String("uuid", user.Uuid), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	zlog.Info("用户登录成功", zap.String("uuid", user.Uuid))
	return &respond.LoginRespond{
		Uuid:  user.Uuid,
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	}, nil
}

func (u *userInfoServiceImpl) ValidateToken(token string) (*respond.ValidateTokenRespond, error) {
	if strings.TrimSpace(token) == "" {
		return nil, xerr.ErrParam
	}

	claims, err := myjwt.ParseToken(token)
	if err != nil {
		return &respond.ValidateTokenRespond{Valid: false}, nil
	}
	return &respond.ValidateTokenRespond{
		Valid: true,
		Uuid:  claims.Uuid,
		Email: claims.Email,
	}, nil
}

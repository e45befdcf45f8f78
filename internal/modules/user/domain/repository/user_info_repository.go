package repository

import "PricePilot/internal/modules/user/domain/entity"

// UserInfoRepository 接口定义
type UserInfoRepository interface {
	CreateUserInfo(user *entity.UserInfo) error
	GetUserInfoByEmail(email string) (*entity.UserInfo, error)
	GetUserInfoByUUIDWithoutPassword(uuid string) (*entity.UserInfo, error)
}

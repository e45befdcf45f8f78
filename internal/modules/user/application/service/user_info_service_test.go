package service

import (
	"testing"

	"PricePilot/internal/modules/user/application/dto/request"
	"PricePilot/internal/modules/user/domain/entity"
	"PricePilot/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	byEmail map[string]*entity.UserInfo
	created []*entity.UserInfo
}

func (f *fakeUserRepo) CreateUserInfo(user *entity.UserInfo) error {
	f.created = append(f.created, user)
	return nil
}

func (f *fakeUserRepo) GetUserInfoByEmail(email string) (*entity.UserInfo, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetUserInfoByUUIDWithoutPassword(uuid string) (*entity.UserInfo, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*entity.UserInfo{
		"a@b.com": {Email: "a@b.com"},
	}}
	svc := NewUserInfoService(repo)

	_, err := svc.Register(request.RegisterRequest{
		Name:     "A",
		Email:    "A@B.com", // 大小写不敏感
		Password: "secret123",
	})
	require.ErrorIs(t, err, xerr.ErrUserExists)
	assert.Empty(t, repo.created)
}

func TestLoginWrongPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.DefaultCost)
	require.NoError(t, err)

	repo := &fakeUserRepo{byEmail: map[string]*entity.UserInfo{
		"a@b.com": {Uuid: "u1", Email: "a@b.com", Password: string(hashed)},
	}}
	svc := NewUserInfoService(repo)

	_, err = svc.Login(request.LoginRequest{Email: "a@b.com", Password: "wrong"})
	require.ErrorIs(t, err, xerr.ErrBadLogin)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewUserInfoService(&fakeUserRepo{byEmail: map[string]*entity.UserInfo{}})

	_, err := svc.Login(request.LoginRequest{Email: "missing@b.com", Password: "x"})
	require.ErrorIs(t, err, xerr.ErrBadLogin)
}

func TestValidateTokenInvalid(t *testing.T) {
	svc := NewUserInfoService(&fakeUserRepo{})

	resp, err := svc.ValidateToken("not-a-jwt")
	require.NoError(t, err)
	assert.False(t, resp.Valid)

	_, err = svc.ValidateToken("  ")
	require.ErrorIs(t, err, xerr.ErrParam)
}

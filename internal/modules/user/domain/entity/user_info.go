package entity

import "time"

// UserInfo 用户实体
type UserInfo struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Uuid      string    `json:"uuid" gorm:"uniqueIndex;size:64;not null"`
	Name      string    `json:"name" gorm:"size:64;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:128;not null"`
	Mobile    string    `json:"mobile" gorm:"size:32"`
	Password  string    `json:"-" gorm:"size:128;not null"` // bcrypt 哈希
	CreatedAt time.Time `json:"created_at"`
}

func (UserInfo) TableName() string {
	return "users"
}

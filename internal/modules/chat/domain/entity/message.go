package entity

import "time"

// Message 一条提问/回答历史记录。
// 每次成功的比价查询会写入两条：用户的 prompt 与助手的报告。
type Message struct {
	Id        int64  `gorm:"primaryKey;autoIncrement"`
	Uuid      string `gorm:"uniqueIndex;size:64"`
	UserUuid  string `gorm:"index;size:64"`
	Role      string `gorm:"size:16"` // user / assistant
	Content   string `gorm:"type:text"`
	CreatedAt time.Time
}

func (Message) TableName() string {
	return "messages"
}

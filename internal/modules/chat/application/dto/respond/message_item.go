package respond

import "time"

type MessageItem struct {
	Uuid      string    `json:"uuid"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

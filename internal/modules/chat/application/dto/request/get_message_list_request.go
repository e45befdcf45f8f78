package request

type GetMessageListRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

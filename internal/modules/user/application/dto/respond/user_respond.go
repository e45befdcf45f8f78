package respond

// RegisterRespond 注册响应
type RegisterRespond struct {
	Uuid  string `json:"uuid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// LoginRespond 登录响应
type LoginRespond struct {
	Uuid  string `json:"uuid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// ValidateTokenRespond 令牌校验响应
type ValidateTokenRespond struct {
	Valid bool   `json:"valid"`
	Uuid  string `json:"uuid,omitempty"`
	Email string `json:"email,omitempty"`
}

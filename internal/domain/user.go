package domain

type Role string

const (
	RoleAdmin Role = "admin"
)

// Admin 是唯一的管理员账户，来自配置而非数据库
type Admin struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}

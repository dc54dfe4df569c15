package models

import "gorm.io/gorm"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Username string `json:"username" gorm:"size:150;uniqueIndex"`
	FullName string `json:"fullName" gorm:"size:100"`
	Email    string `json:"email" gorm:"index"`
	Phone    string `json:"phone" gorm:"size:20;index"`
	Avatar   string `json:"avatar"`
	Password string `json:"-"`
	Role     string `json:"role" gorm:"size:20;default:user"`
}

func (u User) IsStaff() bool {
	return u.Role == RoleAdmin
}

package models

import "time"

const (
	RoleAdmin = "admin"
	RoleVoter = "voter"
)

type User struct {
	Username     string    `gorm:"primaryKey;size:100" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;size:10" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

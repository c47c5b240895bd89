package user

import (
	"time"

	"storefront/internal/presence"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           uint64     `gorm:"primaryKey"`
	Name         string     `gorm:"not null"`
	Email        string     `gorm:"not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password;not null"`
	Role         Role       `gorm:"type:varchar(16);not null;default:'user';index"`
	Avatar       string     `gorm:"type:text"`
	LastActiveAt *time.Time `gorm:"column:last_active_at"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Profile is the public view of a User: no password, presence resolved.
type Profile struct {
	ID         uint64     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Avatar     string     `json:"avatar"`
	LastActive *time.Time `json:"lastActive"`
	Online     bool       `json:"online"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (u *User) Profile(now time.Time) Profile {
	return Profile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Avatar:     u.Avatar,
		LastActive: u.LastActiveAt,
		Online:     presence.IsOnline(u.LastActiveAt, now),
		CreatedAt:  u.CreatedAt,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

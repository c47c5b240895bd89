package session

import "github.com/golang-jwt/jwt/v5"

// Claims is the token payload identifying the caller and their role.
type Claims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

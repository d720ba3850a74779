package model

type UserRole string

const (
	UserRoleAdmin       UserRole = "admin"
	UserRoleDoctor      UserRole = "doctor"
	UserRolePatient     UserRole = "patient"
	UserRoleBlacklisted UserRole = "blacklisted"
)

type User struct {
	Base
	Name         string   `db:"name" json:"name"`
	Email        string   `db:"email" json:"email"`
	PasswordHash string   `db:"password_hash" json:"-"`
	Role         UserRole `db:"role" json:"role"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token  string   `json:"token"`
	Role   UserRole `json:"role"`
	UserID string   `json:"user_id"`
}

package auth

import "time"

// User is an account able to log in. PasswordHash is a bcrypt hash and never
// leaves the package.
type User struct {
	ID           int64
	FarmID       int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// LoginInput carries the login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is the issued session.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    int64     `json:"userId"`
	FarmID    int64     `json:"farmId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

package users

import "time"

type User struct {
	ID           string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	Email    string
	Password string
}

type UserResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (u *User) Response() UserResponse {
	return UserResponse{UserID: u.ID, Email: u.Email}
}

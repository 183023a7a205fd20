package dto

import "github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"

type SignupRequest struct {
	User *models.UserInput `json:"user"`
}

type UpdateUserRequest struct {
	NewUser *models.UserInput `json:"newUser"`
}

type UpdateEmailRequest struct {
	Email string `json:"email"`
}

// UserResponse carries a user or, on failure, a null user and a message.
type UserResponse struct {
	User  *models.User `json:"user"`
	Error string       `json:"error,omitempty"`
}

type UpdateEmailResponse struct {
	UpdateEmail bool   `json:"updateEmail"`
	Error       string `json:"error,omitempty"`
}

type DeleteAuth0UserResponse struct {
	DeleteAuth0User bool   `json:"deleteAuth0User"`
	Error           string `json:"error,omitempty"`
}

type DeleteUserResponse struct {
	DeleteUser bool   `json:"deleteUser"`
	Error      string `json:"error,omitempty"`
}

package user

import "github.com/google/uuid"

// Summary is the read-only snapshot of a user returned by the user directory.
type Summary struct {
	ID          uuid.UUID `json:"userID"`
	DisplayName string    `json:"personName"`
	Email       string    `json:"email"`
	GenderTag   string    `json:"gender"`
}

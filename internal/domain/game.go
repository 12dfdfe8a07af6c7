package domain

import "time"

// Game is the top-level partition that owns a set of lists.
type Game struct {
	ID          int       `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateGameRequest struct {
	Name        string  `json:"name" validate:"max=100,title_chars"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type UpdateGameRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100,title_chars"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

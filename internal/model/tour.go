package model

import "time"

// Tour 行程，wizard 只讀取其中的價格與人數上限
type Tour struct {
	ID              int       `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	BaseUnitPrice   float64   `json:"base_unit_price" db:"base_unit_price"`
	MaxParticipants int       `json:"max_participants" db:"max_participants"`
	Currency        string    `json:"currency" db:"currency"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

package models

import "time"

type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	Obscurity   Obscurity `json:"obscurity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

package models

import "github.com/google/uuid"

// Team represents one guessing team within a game. Teams are created with
// the game and never removed; name and color are editable by the host.
type Team struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"` // hex color for the UI
	Order      int       `json:"order"` // 1-indexed turn order
	TotalScore int       `json:"total_score"`
}

// Player represents a person in a game. TeamID is nil while unassigned.
type Player struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	SessionKey string     `json:"-"` // replayed by the client on reconnect, never broadcast
	IsHost     bool       `json:"is_host"`
	TeamID     *uuid.UUID `json:"team_id,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerView is the broadcast shape of a player.
type PlayerView struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	IsHost bool      `json:"is_host"`
}

// TeamView is the broadcast shape of a team with its roster.
type TeamView struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	Color      string       `json:"color"`
	Order      int          `json:"order"`
	TotalScore int          `json:"total_score"`
	Players    []PlayerView `json:"players"`
}

// CategoryView is the broadcast shape of an enabled category.
type CategoryView struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	NameAr string    `json:"name_ar,omitempty"`
	Icon   string    `json:"icon"`
}

// RoundView is the broadcast shape of the current round. Token is the
// actor-only prompt-fetch secret and is stripped for everyone else.
type RoundView struct {
	ID           uuid.UUID   `json:"id"`
	Number       int         `json:"number"`
	TeamID       uuid.UUID   `json:"team_id"`
	TeamName     string      `json:"team_name"`
	TeamColor    string      `json:"team_color"`
	ActorID      *uuid.UUID  `json:"actor_id,omitempty"`
	ActorName    string      `json:"actor_name,omitempty"`
	CategoryID   *uuid.UUID  `json:"category_id,omitempty"`
	CategoryName string      `json:"category_name,omitempty"`
	CategoryIcon string      `json:"category_icon,omitempty"`
	Status       RoundStatus `json:"status"`
	Token        string      `json:"token,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	TimeTaken    *float64    `json:"time_taken,omitempty"`
	Points       int         `json:"points"`
}

// GameSnapshot is the full current-state view sent to a newly connected
// socket and carried in state-bearing broadcasts. Clients replace, never
// merge, their local state with it.
type GameSnapshot struct {
	Code               string         `json:"code"`
	Status             GameStatus     `json:"status"`
	CurrentRound       int            `json:"current_round"`
	TotalRounds        int            `json:"total_rounds"`
	MaxTimePerTurn     int            `json:"max_time_per_turn"`
	Teams              []TeamView     `json:"teams"`
	UnassignedPlayers  []PlayerView   `json:"unassigned_players"`
	Round              *RoundView     `json:"round,omitempty"`
	SelectedCategories []CategoryView `json:"selected_categories"`
}

// Redacted returns a copy of the snapshot with actor-only secrets
// stripped. Safe to call on a nil-round snapshot.
func (s GameSnapshot) Redacted() GameSnapshot {
	if s.Round == nil || s.Round.Token == "" {
		return s
	}
	round := *s.Round
	round.Token = ""
	s.Round = &round
	return s
}

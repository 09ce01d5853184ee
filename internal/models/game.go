package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus defines the lifecycle status of a game.
type GameStatus string

const (
	GameStatusLobby      GameStatus = "lobby"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusFinished   GameStatus = "finished"
)

// GameSettings holds the host-tunable configuration for a game.
type GameSettings struct {
	TotalRounds    int         `json:"total_rounds"`
	MaxTimePerTurn int         `json:"max_time_per_turn"` // seconds
	CategoryIDs    []uuid.UUID `json:"category_ids"`
}

// Game represents one play session identified by a short join code.
// Status only moves lobby -> in_progress -> finished.
type Game struct {
	ID           uuid.UUID    `json:"id"`
	Code         string       `json:"code"`
	Status       GameStatus   `json:"status"`
	Settings     GameSettings `json:"settings"`
	Teams        []*Team      `json:"teams"`
	Players      []*Player    `json:"players"`
	CurrentRound int          `json:"current_round"` // 1-indexed, 0 while in lobby
	Rounds       []*Round     `json:"rounds"`        // retired rounds kept for stats
	CreatedAt    time.Time    `json:"created_at"`
}

// TeamByID returns the team with the given id, or nil.
func (g *Game) TeamByID(id uuid.UUID) *Team {
	for _, t := range g.Teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// PlayerByID returns the player with the given id, or nil.
func (g *Game) PlayerByID(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerBySessionKey returns the player that joined with the given session
// key, or nil. Session keys are how reconnecting clients are recognized.
func (g *Game) PlayerBySessionKey(key string) *Player {
	for _, p := range g.Players {
		if p.SessionKey == key {
			return p
		}
	}
	return nil
}

// Host returns the host player. Exactly one player per game is the host.
func (g *Game) Host() *Player {
	for _, p := range g.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// UnassignedPlayers returns players not yet placed on a team.
func (g *Game) UnassignedPlayers() []*Player {
	var out []*Player
	for _, p := range g.Players {
		if p.TeamID == nil {
			out = append(out, p)
		}
	}
	return out
}

// CategoryEnabled reports whether the category is in the game's enabled set.
func (g *Game) CategoryEnabled(id uuid.UUID) bool {
	for _, c := range g.Settings.CategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}

// ActiveRound returns the round at the current index, or nil.
func (g *Game) ActiveRound() *Round {
	if g.CurrentRound == 0 || len(g.Rounds) < g.CurrentRound {
		return nil
	}
	return g.Rounds[g.CurrentRound-1]
}

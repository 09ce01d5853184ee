package models

import "github.com/google/uuid"

// TeamStats summarizes one team's results for the scoreboard.
type TeamStats struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Color         string    `json:"color"`
	TotalScore    int       `json:"total_score"`
	RoundsWon     int       `json:"rounds_won"`
	RoundsTimeout int       `json:"rounds_timeout"`
}

// BestRoundView is the fastest correctly guessed round of the game.
type BestRoundView struct {
	Number    int     `json:"round_number"`
	TimeTaken float64 `json:"time_taken"`
	Points    int     `json:"points"`
	ActorName string  `json:"actor"`
	Prompt    string  `json:"prompt"`
}

// Scoreboard is the end-of-game statistics view.
type Scoreboard struct {
	GameCode          string         `json:"game_code"`
	Teams             []TeamStats    `json:"teams"`
	Winner            *TeamStats     `json:"winner,omitempty"`
	BestRound         *BestRoundView `json:"best_round,omitempty"`
	TotalRoundsPlayed int            `json:"total_rounds_played"`
}

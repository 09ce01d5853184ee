package models

import (
	"time"

	"github.com/google/uuid"
)

// RoundStatus defines where a round is in its lifecycle.
type RoundStatus string

const (
	RoundStatusSelectingActor    RoundStatus = "selecting_actor"
	RoundStatusSelectingCategory RoundStatus = "selecting_category"
	RoundStatusShowingQR         RoundStatus = "showing_qr"
	RoundStatusActorReady        RoundStatus = "actor_ready"
	RoundStatusActive            RoundStatus = "active"
	RoundStatusGuessed           RoundStatus = "guessed"
	RoundStatusTimeout           RoundStatus = "timeout"
	RoundStatusSkipped           RoundStatus = "skipped"
)

// Terminal reports whether the status is one after which only next_round
// is valid.
func (s RoundStatus) Terminal() bool {
	switch s {
	case RoundStatusGuessed, RoundStatusTimeout, RoundStatusSkipped:
		return true
	}
	return false
}

// RoundResult is set once a round reaches a terminal status.
type RoundResult struct {
	Status    RoundStatus `json:"status"`
	TimeTaken float64     `json:"time_taken"` // seconds
	Points    int         `json:"points"`
	TeamScore int         `json:"team_score"`
}

// Round is one timed turn: one player from the active team acts out a
// prompt for teammates to guess. Rounds reference teams and players by id
// only, never by live pointer.
type Round struct {
	ID         uuid.UUID   `json:"id"`
	Number     int         `json:"number"` // 1-indexed within the game
	TeamID     uuid.UUID   `json:"team_id"`
	ActorID    *uuid.UUID  `json:"actor_id,omitempty"`
	CategoryID *uuid.UUID  `json:"category_id,omitempty"`
	PromptID   *uuid.UUID  `json:"-"` // never serialized to non-actor connections
	Status     RoundStatus `json:"status"`

	// Token gates the actor's prompt fetch. Minted when the round enters
	// showing_qr, cleared when the round ends.
	Token string `json:"-"`

	StartedAt *time.Time   `json:"started_at,omitempty"` // server clock only
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
	Result    *RoundResult `json:"result,omitempty"`
}

// Package events defines the server-to-client event envelope and the
// optional outbound event sink.
package events

import (
	"github.com/actout/actout/internal/models"
)

// Type tags an outbound event.
type Type string

const (
	TypeGameState       Type = "game_state"
	TypePlayerJoined    Type = "player_joined"
	TypeTeamUpdated     Type = "team_updated"
	TypeSettingsUpdated Type = "settings_updated"
	TypeGameStarted     Type = "game_started"
	TypeRoundUpdated    Type = "round_updated"
	TypeActorReady      Type = "actor_ready"
	TypeTimerStarted    Type = "timer_started"
	TypeRoundEnded      Type = "round_ended"
	TypeGameFinished    Type = "game_finished"
	TypeError           Type = "error"
)

// ProtocolVersion is carried on every envelope so clients can detect
// incompatible servers.
const ProtocolVersion = 1

// Event is the envelope broadcast to every connection in a room. Data is
// the full authoritative snapshot for state-bearing events; Result rides
// along on round_ended.
type Event struct {
	Type    Type                 `json:"type"`
	Version int                  `json:"version"`
	Data    *models.GameSnapshot `json:"data,omitempty"`
	Player  *models.PlayerView   `json:"player,omitempty"`
	Result  *models.RoundResult  `json:"result,omitempty"`
	Message string               `json:"message,omitempty"`
}

// New builds a state-bearing event.
func New(t Type, snap models.GameSnapshot) Event {
	return Event{Type: t, Version: ProtocolVersion, Data: &snap}
}

// NewPlayerJoined builds the player_joined announcement.
func NewPlayerJoined(p models.PlayerView) Event {
	return Event{Type: TypePlayerJoined, Version: ProtocolVersion, Player: &p}
}

// NewRoundEnded builds a round_ended event with its result.
func NewRoundEnded(snap models.GameSnapshot, result models.RoundResult) Event {
	return Event{Type: TypeRoundEnded, Version: ProtocolVersion, Data: &snap, Result: &result}
}

// NewError builds the sender-only error event.
func NewError(message string) Event {
	return Event{Type: TypeError, Version: ProtocolVersion, Message: message}
}

// Redacted strips actor-only secrets from the event's snapshot.
func (e Event) Redacted() Event {
	if e.Data == nil {
		return e
	}
	snap := e.Data.Redacted()
	e.Data = &snap
	return e
}

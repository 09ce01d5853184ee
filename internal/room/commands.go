package room

import "github.com/google/uuid"

// Command is a serialized mutation request for one room. Commands are
// decoded at the transport boundary and applied one at a time, in arrival
// order, by the room's single owner goroutine.
type Command interface {
	isCommand()
}

// Sender identifies who issued a command, as established when the
// connection announced itself. A zero Sender is an unbound connection.
type Sender struct {
	PlayerID uuid.UUID
}

// JoinGame adds the sender to the game, or recognizes a returning player
// by session key.
type JoinGame struct {
	PlayerName string
	SessionKey string
}

// AddPlayer is the host adding a device-less player by name.
type AddPlayer struct {
	Sender     Sender
	PlayerName string
	TeamID     *uuid.UUID
}

// AssignPlayer moves a player onto a team.
type AssignPlayer struct {
	Sender   Sender
	PlayerID uuid.UUID
	TeamID   uuid.UUID
}

// UpdateTeam renames or recolors a team.
type UpdateTeam struct {
	Sender Sender
	TeamID uuid.UUID
	Name   *string
	Color  *string
}

// UpdateSettings changes game settings while in the lobby.
type UpdateSettings struct {
	Sender         Sender
	TotalRounds    *int
	MaxTimePerTurn *int
	CategoryIDs    []uuid.UUID
}

// StartGame moves the room from lobby to in_progress and creates round 1.
type StartGame struct {
	Sender Sender
}

// SelectActor picks the acting player for the round.
type SelectActor struct {
	Sender   Sender
	RoundID  uuid.UUID
	PlayerID uuid.UUID
}

// SelectCategory picks the round's category and draws its prompt.
type SelectCategory struct {
	Sender     Sender
	RoundID    uuid.UUID
	CategoryID uuid.UUID
}

// ActorReady signals the actor has seen the prompt.
type ActorReady struct {
	Sender  Sender
	RoundID uuid.UUID
}

// StartTimer starts the authoritative round timer.
type StartTimer struct {
	Sender  Sender
	RoundID uuid.UUID
}

// CorrectGuess settles the round as guessed and awards points.
type CorrectGuess struct {
	Sender  Sender
	RoundID uuid.UUID
}

// Timeout is a client-raised timeout hint. It is validated against the
// server clock; the server-scheduled check does not depend on it.
type Timeout struct {
	Sender  Sender
	RoundID uuid.UUID
}

// SkipRound settles the round as skipped.
type SkipRound struct {
	Sender  Sender
	RoundID uuid.UUID
}

// NextRound acknowledges the current result and advances the game.
type NextRound struct {
	Sender Sender
}

// timerFired is injected by the timeout timer. It travels through the
// same mailbox as client commands so it can never race a guess.
type timerFired struct {
	RoundID uuid.UUID
}

func (JoinGame) isCommand()       {}
func (AddPlayer) isCommand()      {}
func (AssignPlayer) isCommand()   {}
func (UpdateTeam) isCommand()     {}
func (UpdateSettings) isCommand() {}
func (StartGame) isCommand()      {}
func (SelectActor) isCommand()    {}
func (SelectCategory) isCommand() {}
func (ActorReady) isCommand()     {}
func (StartTimer) isCommand()     {}
func (CorrectGuess) isCommand()   {}
func (Timeout) isCommand()        {}
func (SkipRound) isCommand()      {}
func (NextRound) isCommand()      {}
func (timerFired) isCommand()     {}

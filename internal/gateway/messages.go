package gateway

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/actout/actout/internal/models"
	"github.com/actout/actout/internal/room"
)

// inbound is the raw client message envelope: a type tag plus the
// type-specific fields, decoded in one pass.
type inbound struct {
	Type string `json:"type"`

	PlayerName string `json:"player_name,omitempty"`
	SessionKey string `json:"session_key,omitempty"`

	PlayerID   *uuid.UUID `json:"player_id,omitempty"`
	TeamID     *uuid.UUID `json:"team_id,omitempty"`
	RoundID    *uuid.UUID `json:"round_id,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`

	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`

	TotalRounds    *int        `json:"total_rounds,omitempty"`
	MaxTimePerTurn *int        `json:"max_time_per_turn,omitempty"`
	CategoryIDs    []uuid.UUID `json:"category_ids,omitempty"`
}

// decodeCommand turns a raw client message into a typed room command.
// Unknown tags and missing required fields are rejected here, before the
// state machine ever sees them.
func decodeCommand(data []byte, sender room.Sender) (room.Command, error) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, models.NewGameError(models.ErrValidation, "malformed message")
	}

	switch msg.Type {
	case "join_game":
		return room.JoinGame{PlayerName: msg.PlayerName, SessionKey: msg.SessionKey}, nil

	case "add_player":
		return room.AddPlayer{Sender: sender, PlayerName: msg.PlayerName, TeamID: msg.TeamID}, nil

	case "assign_player":
		if msg.PlayerID == nil || msg.TeamID == nil {
			return nil, models.NewGameError(models.ErrValidation, "assign_player requires player_id and team_id")
		}
		return room.AssignPlayer{Sender: sender, PlayerID: *msg.PlayerID, TeamID: *msg.TeamID}, nil

	case "update_team":
		if msg.TeamID == nil {
			return nil, models.NewGameError(models.ErrValidation, "update_team requires team_id")
		}
		return room.UpdateTeam{Sender: sender, TeamID: *msg.TeamID, Name: msg.Name, Color: msg.Color}, nil

	case "update_settings":
		return room.UpdateSettings{
			Sender:         sender,
			TotalRounds:    msg.TotalRounds,
			MaxTimePerTurn: msg.MaxTimePerTurn,
			CategoryIDs:    msg.CategoryIDs,
		}, nil

	case "start_game":
		return room.StartGame{Sender: sender}, nil

	case "select_actor":
		if msg.RoundID == nil || msg.PlayerID == nil {
			return nil, models.NewGameError(models.ErrValidation, "select_actor requires round_id and player_id")
		}
		return room.SelectActor{Sender: sender, RoundID: *msg.RoundID, PlayerID: *msg.PlayerID}, nil

	case "select_category":
		if msg.RoundID == nil || msg.CategoryID == nil {
			return nil, models.NewGameError(models.ErrValidation, "select_category requires round_id and category_id")
		}
		return room.SelectCategory{Sender: sender, RoundID: *msg.RoundID, CategoryID: *msg.CategoryID}, nil

	case "actor_ready":
		if msg.RoundID == nil {
			return nil, models.NewGameError(models.ErrValidation, "actor_ready requires round_id")
		}
		return room.ActorReady{Sender: sender, RoundID: *msg.RoundID}, nil

	case "start_timer":
		if msg.RoundID == nil {
			return nil, models.NewGameError(models.ErrValidation, "start_timer requires round_id")
		}
		return room.StartTimer{Sender: sender, RoundID: *msg.RoundID}, nil

	case "correct_guess":
		if msg.RoundID == nil {
			return nil, models.NewGameError(models.ErrValidation, "correct_guess requires round_id")
		}
		return room.CorrectGuess{Sender: sender, RoundID: *msg.RoundID}, nil

	case "timeout":
		if msg.RoundID == nil {
			return nil, models.NewGameError(models.ErrValidation, "timeout requires round_id")
		}
		return room.Timeout{Sender: sender, RoundID: *msg.RoundID}, nil

	case "skip_round":
		if msg.RoundID == nil {
			return nil, models.NewGameError(models.ErrValidation, "skip_round requires round_id")
		}
		return room.SkipRound{Sender: sender, RoundID: *msg.RoundID}, nil

	case "next_round":
		return room.NextRound{Sender: sender}, nil

	default:
		return nil, models.NewGameError(models.ErrValidation, "unknown message type: %s", msg.Type)
	}
}

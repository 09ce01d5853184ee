package room

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/actout/actout/internal/models"
)

// buildScoreboard aggregates terminal rounds into end-of-game statistics.
// Valid at any point in the game; final once the game is finished.
func (r *Room) buildScoreboard() models.Scoreboard {
	board := models.Scoreboard{GameCode: r.game.Code, Teams: []models.TeamStats{}}

	var best *models.Round
	for _, round := range r.game.Rounds {
		if !round.Status.Terminal() {
			continue
		}
		board.TotalRoundsPlayed++
		if round.Status == models.RoundStatusGuessed &&
			(best == nil || round.Result.TimeTaken < best.Result.TimeTaken) {
			best = round
		}
	}

	for _, team := range r.game.Teams {
		stats := models.TeamStats{
			ID:         team.ID,
			Name:       team.Name,
			Color:      team.Color,
			TotalScore: team.TotalScore,
		}
		for _, round := range r.game.Rounds {
			if round.TeamID != team.ID {
				continue
			}
			switch round.Status {
			case models.RoundStatusGuessed:
				stats.RoundsWon++
			case models.RoundStatusTimeout:
				stats.RoundsTimeout++
			}
		}
		board.Teams = append(board.Teams, stats)
	}

	for i := range board.Teams {
		if board.Winner == nil || board.Teams[i].TotalScore > board.Winner.TotalScore {
			board.Winner = &board.Teams[i]
		}
	}

	if best != nil {
		view := &models.BestRoundView{
			Number:    best.Number,
			TimeTaken: best.Result.TimeTaken,
			Points:    best.Result.Points,
		}
		if best.ActorID != nil {
			if actor := r.game.PlayerByID(*best.ActorID); actor != nil {
				view.ActorName = actor.Name
			}
		}
		if best.PromptID != nil {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			prompt, err := r.store.GetPrompt(ctx, *best.PromptID)
			cancel()
			if err != nil {
				log.Warn().Err(err).Str("code", r.game.Code).Msg("failed to resolve best round prompt")
			} else {
				view.Prompt = prompt.Title
			}
		}
		board.BestRound = view
	}
	return board
}

package room

import (
	"sort"

	"github.com/actout/actout/internal/models"
)

// snapshot builds the unredacted full-state view. Callers decide whether
// the viewer may keep the actor-only token.
func (r *Room) snapshot() models.GameSnapshot {
	snap := models.GameSnapshot{
		Code:           r.game.Code,
		Status:         r.game.Status,
		CurrentRound:   r.game.CurrentRound,
		TotalRounds:    r.game.Settings.TotalRounds,
		MaxTimePerTurn: r.game.Settings.MaxTimePerTurn,
	}

	for _, team := range r.game.Teams {
		tv := models.TeamView{
			ID:         team.ID,
			Name:       team.Name,
			Color:      team.Color,
			Order:      team.Order,
			TotalScore: team.TotalScore,
			Players:    []models.PlayerView{},
		}
		for _, p := range r.game.Players {
			if p.TeamID != nil && *p.TeamID == team.ID {
				tv.Players = append(tv.Players, playerView(p))
			}
		}
		snap.Teams = append(snap.Teams, tv)
	}

	snap.UnassignedPlayers = []models.PlayerView{}
	for _, p := range r.game.UnassignedPlayers() {
		snap.UnassignedPlayers = append(snap.UnassignedPlayers, playerView(p))
	}

	snap.SelectedCategories = []models.CategoryView{}
	for _, id := range r.game.Settings.CategoryIDs {
		if cv, ok := r.categories[id]; ok {
			snap.SelectedCategories = append(snap.SelectedCategories, cv)
		}
	}
	sort.Slice(snap.SelectedCategories, func(i, j int) bool {
		return snap.SelectedCategories[i].Name < snap.SelectedCategories[j].Name
	})

	if round := r.game.ActiveRound(); round != nil {
		snap.Round = r.roundView(round)
	}
	return snap
}

// snapshotFor builds the snapshot a specific viewer is allowed to see:
// only the current round's actor keeps the prompt token.
func (r *Room) snapshotFor(viewer Sender) models.GameSnapshot {
	snap := r.snapshot()
	round := r.game.ActiveRound()
	if round == nil || round.ActorID == nil || viewer.PlayerID != *round.ActorID {
		return snap.Redacted()
	}
	return snap
}

func (r *Room) roundView(round *models.Round) *models.RoundView {
	rv := &models.RoundView{
		ID:        round.ID,
		Number:    round.Number,
		TeamID:    round.TeamID,
		Status:    round.Status,
		Token:     round.Token,
		StartedAt: round.StartedAt,
	}
	if team := r.game.TeamByID(round.TeamID); team != nil {
		rv.TeamName = team.Name
		rv.TeamColor = team.Color
	}
	if round.ActorID != nil {
		id := *round.ActorID
		rv.ActorID = &id
		if actor := r.game.PlayerByID(id); actor != nil {
			rv.ActorName = actor.Name
		}
	}
	if round.CategoryID != nil {
		id := *round.CategoryID
		rv.CategoryID = &id
		if cv, ok := r.categories[id]; ok {
			rv.CategoryName = cv.Name
			rv.CategoryIcon = cv.Icon
		}
	}
	if round.Result != nil {
		t := round.Result.TimeTaken
		rv.TimeTaken = &t
		rv.Points = round.Result.Points
	}
	return rv
}

func playerView(p *models.Player) models.PlayerView {
	return models.PlayerView{ID: p.ID, Name: p.Name, IsHost: p.IsHost}
}

package room

import "github.com/actout/actout/internal/models"

// TurnPolicy decides which team acts in the next round. Fixed when the
// game starts.
type TurnPolicy interface {
	// NextTeam returns the acting team for the upcoming round. prev is nil
	// for round 1.
	NextTeam(teams []*models.Team, prev *models.Team) *models.Team
}

// Alternation cycles teams in their fixed order. The reference flow with
// two teams becomes simple A/B alternation.
type Alternation struct{}

func (Alternation) NextTeam(teams []*models.Team, prev *models.Team) *models.Team {
	if len(teams) == 0 {
		return nil
	}
	if prev == nil {
		return teams[0]
	}
	for i, t := range teams {
		if t.ID == prev.ID {
			return teams[(i+1)%len(teams)]
		}
	}
	return teams[0]
}

// LowestScoreFirst gives the turn to the trailing team, breaking ties by
// team order. Keeps games close at the cost of strict fairness.
type LowestScoreFirst struct{}

func (LowestScoreFirst) NextTeam(teams []*models.Team, prev *models.Team) *models.Team {
	if len(teams) == 0 {
		return nil
	}
	best := teams[0]
	for _, t := range teams[1:] {
		if t.TotalScore < best.TotalScore ||
			(t.TotalScore == best.TotalScore && t.Order < best.Order) {
			best = t
		}
	}
	// Never hand the same team two consecutive turns when an alternative
	// exists.
	if prev != nil && best.ID == prev.ID && len(teams) > 1 {
		next := (*models.Team)(nil)
		for _, t := range teams {
			if t.ID == prev.ID {
				continue
			}
			if next == nil || t.TotalScore < next.TotalScore ||
				(t.TotalScore == next.TotalScore && t.Order < next.Order) {
				next = t
			}
		}
		return next
	}
	return best
}

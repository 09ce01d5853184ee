package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundStatusTerminal(t *testing.T) {
	terminal := []RoundStatus{RoundStatusGuessed, RoundStatusTimeout, RoundStatusSkipped}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s", s)
	}
	live := []RoundStatus{
		RoundStatusSelectingActor, RoundStatusSelectingCategory,
		RoundStatusShowingQR, RoundStatusActorReady, RoundStatusActive,
	}
	for _, s := range live {
		assert.False(t, s.Terminal(), "%s", s)
	}
}

func TestGameErrorKinds(t *testing.T) {
	err := NewGameError(ErrAuthorization, "player %s may not act", "Omar")
	assert.Equal(t, "player Omar may not act", err.Error())
	assert.Equal(t, ErrAuthorization, KindOf(err))
	assert.True(t, IsKind(err, ErrAuthorization))
	assert.False(t, IsKind(err, ErrValidation))

	// Wrapped errors keep their kind.
	wrapped := fmt.Errorf("dispatch: %w", NewGameError(ErrToken, "invalid token"))
	assert.Equal(t, ErrToken, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, ErrToken))

	// Foreign errors default to validation.
	assert.Equal(t, ErrValidation, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, ErrValidation))
}

func TestSnapshotRedacted(t *testing.T) {
	actorID := uuid.New()
	snap := GameSnapshot{
		Round: &RoundView{ID: uuid.New(), ActorID: &actorID, Token: "secret"},
	}

	red := snap.Redacted()
	assert.Empty(t, red.Round.Token)
	assert.Equal(t, snap.Round.ID, red.Round.ID)
	// The original is untouched.
	assert.Equal(t, "secret", snap.Round.Token)

	// Nil-round snapshots pass through.
	empty := GameSnapshot{}
	assert.Nil(t, empty.Redacted().Round)
}

func TestGameLookups(t *testing.T) {
	teamID := uuid.New()
	host := &Player{ID: uuid.New(), Name: "Hana", SessionKey: "sk-h", IsHost: true}
	guest := &Player{ID: uuid.New(), Name: "Omar", SessionKey: "sk-o", TeamID: &teamID}
	g := &Game{
		Teams:   []*Team{{ID: teamID, Name: "Team 1"}},
		Players: []*Player{host, guest},
	}

	assert.Same(t, host, g.Host())
	assert.Same(t, guest, g.PlayerBySessionKey("sk-o"))
	assert.Nil(t, g.PlayerBySessionKey("sk-x"))
	assert.Same(t, guest, g.PlayerByID(guest.ID))
	require.Len(t, g.UnassignedPlayers(), 1)
	assert.Same(t, host, g.UnassignedPlayers()[0])

	g.CurrentRound = 0
	assert.Nil(t, g.ActiveRound())
	round := &Round{ID: uuid.New(), Number: 1}
	g.Rounds = append(g.Rounds, round)
	g.CurrentRound = 1
	assert.Same(t, round, g.ActiveRound())
}

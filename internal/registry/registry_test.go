package registry

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actout/actout/internal/content"
	"github.com/actout/actout/internal/events"
	"github.com/actout/actout/internal/models"
	"github.com/actout/actout/internal/room"
)

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastRoom(string, events.Event) {}

type recordingCloser struct {
	mu     sync.Mutex
	closed []string
}

func (c *recordingCloser) CloseRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = append(c.closed, code)
}

func (c *recordingCloser) codes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.closed...)
}

func newTestRegistry(t *testing.T) (*Registry, *clockwork.FakeClock, *recordingCloser) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	reg := New(content.NewSeededMemoryStore(), Options{
		Clock:       clock,
		LobbyTTL:    time.Hour,
		FinishedTTL: 30 * time.Minute,
	})
	closer := &recordingCloser{}
	reg.Bind(nopBroadcaster{}, closer)
	t.Cleanup(reg.CloseAll)
	return reg, clock, closer
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := generateCode()
		require.Len(t, code, codeLength)
		for _, c := range code {
			assert.Contains(t, codeAlphabet, string(c))
		}
		seen[code] = true
	}
	// 100 draws from a 31^6 space colliding would mean a broken generator.
	assert.Greater(t, len(seen), 95)
}

func TestCreateAndGetRoom(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	rm, host, err := reg.CreateRoom("Hana", "")
	require.NoError(t, err)
	require.NotNil(t, rm)
	assert.True(t, host.IsHost)
	assert.NotEmpty(t, host.SessionKey)
	assert.Len(t, rm.Code(), codeLength)
	assert.Equal(t, 1, reg.Count())

	// Codes are case-insensitive on lookup.
	got, err := reg.GetRoom(strings.ToLower(rm.Code()))
	require.NoError(t, err)
	assert.Same(t, rm, got)

	_, err = reg.GetRoom("ZZZZZZ")
	assert.True(t, models.IsKind(err, models.ErrNotFound))
}

func TestCreateRoomRequiresHostName(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	_, _, err := reg.CreateRoom("", "")
	assert.True(t, models.IsKind(err, models.ErrValidation))
}

func TestCreateRoomDefaults(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := New(content.NewSeededMemoryStore(), Options{Clock: clock})
	reg.Bind(nopBroadcaster{}, &recordingCloser{})
	t.Cleanup(reg.CloseAll)

	rm, host, err := reg.CreateRoom("Hana", "sk-hana")
	require.NoError(t, err)
	assert.Equal(t, "sk-hana", host.SessionKey)

	snap, err := rm.Snapshot(context.Background(), room.Sender{})
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusLobby, snap.Status)
	assert.Equal(t, 10, snap.TotalRounds)
	assert.Equal(t, 240, snap.MaxTimePerTurn)
	require.Len(t, snap.Teams, 2)
	assert.Equal(t, "Team 1", snap.Teams[0].Name)
	assert.Equal(t, "Team 2", snap.Teams[1].Name)
	require.Len(t, snap.UnassignedPlayers, 1)
	assert.True(t, snap.UnassignedPlayers[0].IsHost)
}

func TestSweepEvictsIdleLobby(t *testing.T) {
	reg, clock, closer := newTestRegistry(t)

	stale, _, err := reg.CreateRoom("Hana", "")
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)

	fresh, _, err := reg.CreateRoom("Omar", "")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	reg.sweep(context.Background())

	assert.Equal(t, 1, reg.Count())
	_, err = reg.GetRoom(stale.Code())
	assert.True(t, models.IsKind(err, models.ErrNotFound))
	_, err = reg.GetRoom(fresh.Code())
	assert.NoError(t, err)
	assert.Equal(t, []string{stale.Code()}, closer.codes())

	// Evicted room no longer accepts commands.
	_, err = stale.Do(context.Background(), room.NextRound{})
	assert.True(t, models.IsKind(err, models.ErrNotFound))
}

func TestSweepKeepsActiveGames(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)

	rm, host, err := reg.CreateRoom("Hana", "")
	require.NoError(t, err)

	// An in-progress game never expires on the lobby clock.
	startGame(t, reg, rm, host)
	clock.Advance(3 * time.Hour)
	reg.sweep(context.Background())

	assert.Equal(t, 1, reg.Count())
}

func TestCloseAll(t *testing.T) {
	reg, _, closer := newTestRegistry(t)

	rm1, _, err := reg.CreateRoom("Hana", "")
	require.NoError(t, err)
	rm2, _, err := reg.CreateRoom("Omar", "")
	require.NoError(t, err)

	reg.CloseAll()

	assert.Equal(t, 0, reg.Count())
	assert.ElementsMatch(t, []string{rm1.Code(), rm2.Code()}, closer.codes())
}

// startGame walks a fresh lobby to in_progress: a second player joins,
// everyone gets a team, a category is picked.
func startGame(t *testing.T, reg *Registry, rm *room.Room, host *models.Player) {
	t.Helper()
	ctx := context.Background()

	val, err := rm.Do(ctx, room.JoinGame{PlayerName: "Omar", SessionKey: "sk-omar"})
	require.NoError(t, err)
	guest := val.(*models.Player)

	snap, err := rm.Snapshot(ctx, room.Sender{})
	require.NoError(t, err)
	require.Len(t, snap.Teams, 2)

	hostSender := room.Sender{PlayerID: host.ID}
	require.NoError(t, doCmd(rm, room.AssignPlayer{Sender: hostSender, PlayerID: host.ID, TeamID: snap.Teams[0].ID}))
	require.NoError(t, doCmd(rm, room.AssignPlayer{Sender: hostSender, PlayerID: guest.ID, TeamID: snap.Teams[1].ID}))

	cats, err := reg.store.ListCategories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	require.NoError(t, doCmd(rm, room.UpdateSettings{Sender: hostSender, CategoryIDs: []uuid.UUID{cats[0].ID}}))
	require.NoError(t, doCmd(rm, room.StartGame{Sender: hostSender}))
}

func doCmd(rm *room.Room, cmd room.Command) error {
	_, err := rm.Do(context.Background(), cmd)
	return err
}

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actout/actout/internal/content"
	"github.com/actout/actout/internal/events"
	"github.com/actout/actout/internal/models"
	"github.com/actout/actout/internal/registry"
	"github.com/actout/actout/internal/room"
)

type hubFixture struct {
	hub   *Hub
	reg   *registry.Registry
	srv   *httptest.Server
	store *content.MemoryStore
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	store := content.NewSeededMemoryStore()
	reg := registry.New(store, registry.Options{})
	hub := NewHub(reg, DefaultConnectionConfig())
	reg.Bind(hub, hub)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimPrefix(r.URL.Path, "/ws/")
		hub.HandleWS(w, r, code)
	}))

	t.Cleanup(func() {
		srv.Close()
		reg.CloseAll()
		cancel()
	})
	return &hubFixture{hub: hub, reg: reg, srv: srv, store: store}
}

// serverConn waits for the hub to register a connection for the room and
// returns the server-side handle.
func (f *hubFixture) serverConn(t *testing.T, code string) *Connection {
	t.Helper()
	var conn *Connection
	require.Eventually(t, func() bool {
		f.hub.mu.RLock()
		defer f.hub.mu.RUnlock()
		for c := range f.hub.roomConns[code] {
			conn = c
			return true
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func (f *hubFixture) dial(t *testing.T, code string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/" + code
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev events.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

// readUntil drains events until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want events.Type) events.Event {
	t.Helper()
	for i := 0; i < 10; i++ {
		ev := readEvent(t, conn)
		if ev.Type == want {
			return ev
		}
	}
	t.Fatalf("never received %s", want)
	return events.Event{}
}

func sendMessage(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func TestConnectSendsSnapshotFirst(t *testing.T) {
	f := newHubFixture(t)
	rm, _, err := f.reg.CreateRoom("Hana", "sk-host")
	require.NoError(t, err)

	conn := f.dial(t, rm.Code())

	ev := readEvent(t, conn)
	assert.Equal(t, events.TypeGameState, ev.Type)
	assert.Equal(t, events.ProtocolVersion, ev.Version)
	require.NotNil(t, ev.Data)
	assert.Equal(t, rm.Code(), ev.Data.Code)
	assert.Equal(t, models.GameStatusLobby, ev.Data.Status)
}

func TestConnectUnknownRoom(t *testing.T) {
	f := newHubFixture(t)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/ZZZZZZ"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJoinBroadcastsAndBindsConnection(t *testing.T) {
	f := newHubFixture(t)
	rm, _, err := f.reg.CreateRoom("Hana", "sk-host")
	require.NoError(t, err)

	watcher := f.dial(t, rm.Code())
	readEvent(t, watcher) // initial snapshot

	joiner := f.dial(t, rm.Code())
	readEvent(t, joiner) // initial snapshot

	sendMessage(t, joiner, map[string]string{
		"type":        "join_game",
		"player_name": "Omar",
		"session_key": "sk-omar",
	})

	// Everyone in the room hears about the join.
	ev := readUntil(t, watcher, events.TypePlayerJoined)
	require.NotNil(t, ev.Player)
	assert.Equal(t, "Omar", ev.Player.Name)

	// The joiner gets a fresh personal snapshot on top of the broadcast.
	ev = readUntil(t, joiner, events.TypeGameState)
	require.NotNil(t, ev.Data)

	snap, err := rm.Snapshot(context.Background(), room.Sender{})
	require.NoError(t, err)
	assert.Len(t, snap.UnassignedPlayers, 2)
}

func TestInvalidMessageGetsErrorEvent(t *testing.T) {
	f := newHubFixture(t)
	rm, _, err := f.reg.CreateRoom("Hana", "sk-host")
	require.NoError(t, err)

	conn := f.dial(t, rm.Code())
	readEvent(t, conn)

	sendMessage(t, conn, map[string]string{"type": "dance"})
	ev := readUntil(t, conn, events.TypeError)
	assert.Contains(t, ev.Message, "unknown message type")

	// An unbound connection cannot run host actions.
	sendMessage(t, conn, map[string]string{"type": "start_game"})
	ev = readUntil(t, conn, events.TypeError)
	assert.Contains(t, ev.Message, "host")
}

func TestCloseRoomDisconnectsClients(t *testing.T) {
	f := newHubFixture(t)
	rm, _, err := f.reg.CreateRoom("Hana", "sk-host")
	require.NoError(t, err)

	conn := f.dial(t, rm.Code())
	readEvent(t, conn)
	require.Equal(t, 1, f.hub.Stats()[rm.Code()])

	f.hub.CloseRoom(rm.Code())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Equal(t, 0, f.hub.Stats()[rm.Code()])
}

func TestLateSendAfterTeardownDoesNotPanic(t *testing.T) {
	f := newHubFixture(t)
	rm, _, err := f.reg.CreateRoom("Hana", "sk-host")
	require.NoError(t, err)

	client := f.dial(t, rm.Code())
	readEvent(t, client)
	conn := f.serverConn(t, rm.Code())

	// An error reply from an in-flight dispatch can land after the pumps
	// have already torn the connection down.
	f.hub.unregister(conn)
	conn.shutdown()
	require.NotPanics(t, func() {
		conn.sendEvent(events.NewError("late error reply"))
	})

	// Fan-out racing a room eviction must not crash either.
	f.hub.CloseRoom(rm.Code())
	require.NotPanics(t, func() {
		conn.sendEvent(events.NewError("late error reply"))
		f.hub.handleBroadcast(broadcastMessage{code: rm.Code(), event: events.NewError("gone")})
	})
	assert.Equal(t, 0, f.hub.Stats()[rm.Code()])
}

func TestBroadcastRedactsActorToken(t *testing.T) {
	f := newHubFixture(t)
	rm, host, err := f.reg.CreateRoom("Hana", "sk-host")
	require.NoError(t, err)

	actorConn := f.dial(t, rm.Code())
	readEvent(t, actorConn) // initial snapshot
	watcher := f.dial(t, rm.Code())
	readEvent(t, watcher) // initial snapshot

	// Rejoining with the host's session key binds this socket to the
	// player who will act the round.
	sendMessage(t, actorConn, map[string]string{
		"type":        "join_game",
		"player_name": "Hana",
		"session_key": "sk-host",
	})
	readUntil(t, actorConn, events.TypeGameState)

	ctx := context.Background()
	hostSender := room.Sender{PlayerID: host.ID}

	val, err := rm.Do(ctx, room.JoinGame{PlayerName: "Omar", SessionKey: "sk-omar"})
	require.NoError(t, err)
	guest := val.(*models.Player)

	snap, err := rm.Snapshot(ctx, room.Sender{})
	require.NoError(t, err)
	_, err = rm.Do(ctx, room.AssignPlayer{Sender: hostSender, PlayerID: host.ID, TeamID: snap.Teams[0].ID})
	require.NoError(t, err)
	_, err = rm.Do(ctx, room.AssignPlayer{Sender: hostSender, PlayerID: guest.ID, TeamID: snap.Teams[1].ID})
	require.NoError(t, err)

	cats, err := f.store.ListCategories(ctx)
	require.NoError(t, err)
	_, err = rm.Do(ctx, room.UpdateSettings{Sender: hostSender, CategoryIDs: []uuid.UUID{cats[0].ID}})
	require.NoError(t, err)
	_, err = rm.Do(ctx, room.StartGame{Sender: hostSender})
	require.NoError(t, err)

	snap, err = rm.Snapshot(ctx, room.Sender{})
	require.NoError(t, err)
	rid := snap.Round.ID
	_, err = rm.Do(ctx, room.SelectActor{Sender: hostSender, RoundID: rid, PlayerID: host.ID})
	require.NoError(t, err)
	_, err = rm.Do(ctx, room.SelectCategory{Sender: hostSender, RoundID: rid, CategoryID: cats[0].ID})
	require.NoError(t, err)

	// Only the socket bound to the actor sees the prompt token.
	actorEv := readUntilRound(t, actorConn, models.RoundStatusShowingQR)
	assert.NotEmpty(t, actorEv.Data.Round.Token)

	watcherEv := readUntilRound(t, watcher, models.RoundStatusShowingQR)
	assert.Empty(t, watcherEv.Data.Round.Token)
}

// readUntilRound drains events until a round_updated with the wanted
// round status arrives.
func readUntilRound(t *testing.T, conn *websocket.Conn, want models.RoundStatus) events.Event {
	t.Helper()
	for i := 0; i < 20; i++ {
		ev := readEvent(t, conn)
		if ev.Type != events.TypeRoundUpdated || ev.Data == nil || ev.Data.Round == nil {
			continue
		}
		if ev.Data.Round.Status == want {
			return ev
		}
	}
	t.Fatalf("never received round_updated with status %s", want)
	return events.Event{}
}

func TestEventActor(t *testing.T) {
	actorID := uuid.New()

	withToken := events.New(events.TypeRoundUpdated, models.GameSnapshot{
		Round: &models.RoundView{ActorID: &actorID, Token: "secret"},
	})
	id, ok := eventActor(withToken)
	require.True(t, ok)
	assert.Equal(t, actorID, id)

	_, ok = eventActor(events.New(events.TypeRoundUpdated, models.GameSnapshot{
		Round: &models.RoundView{ActorID: &actorID},
	}))
	assert.False(t, ok)

	_, ok = eventActor(events.NewError("boom"))
	assert.False(t, ok)
}

// Package registry is the process-wide table of live rooms: creation,
// lookup by code, and eviction of abandoned or finished rooms.
package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/actout/actout/internal/config"
	"github.com/actout/actout/internal/content"
	"github.com/actout/actout/internal/models"
	"github.com/actout/actout/internal/room"
)

// maxCodeAttempts bounds collision retries; at party scale a collision
// is already rare, several in a row means something is very wrong.
const maxCodeAttempts = 10

// sweepInterval is how often the eviction pass runs.
const sweepInterval = time.Minute

// ConnectionCloser closes every connection registered for a room before
// the room itself is freed.
type ConnectionCloser interface {
	CloseRoom(code string)
}

// Options configures the registry and the rooms it creates.
type Options struct {
	Clock       clockwork.Clock
	GameConfig  config.GameConfig
	RoomOptions room.Options
	LobbyTTL    time.Duration
	FinishedTTL time.Duration
}

// Registry owns the room table. Rooms are independent; the registry's
// lock only guards the table itself.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	clock       clockwork.Clock
	gameConfig  config.GameConfig
	roomOpts    room.Options
	lobbyTTL    time.Duration
	finishedTTL time.Duration

	store       content.Store
	broadcaster room.Broadcaster
	closer      ConnectionCloser
}

// New builds a registry. Bind must be called before CreateRoom.
func New(store content.Store, opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	defaults := config.DefaultGameConfig()
	if opts.GameConfig.TotalRounds <= 0 {
		opts.GameConfig.TotalRounds = defaults.TotalRounds
	}
	if opts.GameConfig.MaxTimePerTurn <= 0 {
		opts.GameConfig.MaxTimePerTurn = defaults.MaxTimePerTurn
	}
	if opts.LobbyTTL <= 0 {
		opts.LobbyTTL = time.Hour
	}
	if opts.FinishedTTL <= 0 {
		opts.FinishedTTL = 30 * time.Minute
	}
	opts.RoomOptions.Clock = opts.Clock
	return &Registry{
		rooms:       make(map[string]*room.Room),
		clock:       opts.Clock,
		gameConfig:  opts.GameConfig,
		roomOpts:    opts.RoomOptions,
		lobbyTTL:    opts.LobbyTTL,
		finishedTTL: opts.FinishedTTL,
		store:       store,
	}
}

// Bind wires the network layer. The hub needs the registry for routing
// and the registry needs the hub for broadcast and eviction, so the loop
// is closed here instead of in the constructors.
func (r *Registry) Bind(broadcaster room.Broadcaster, closer ConnectionCloser) {
	r.broadcaster = broadcaster
	r.closer = closer
}

// CreateRoom constructs a fresh game in the lobby with the default team
// skeletons and the host as first player.
func (r *Registry) CreateRoom(hostName, sessionKey string) (*room.Room, *models.Player, error) {
	if hostName == "" {
		return nil, nil, models.NewGameError(models.ErrValidation, "host_name is required")
	}
	if sessionKey == "" {
		sessionKey = "host_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}

	host := &models.Player{
		ID:         uuid.New(),
		Name:       hostName,
		SessionKey: sessionKey,
		IsHost:     true,
	}
	game := &models.Game{
		ID:     uuid.New(),
		Status: models.GameStatusLobby,
		Settings: models.GameSettings{
			TotalRounds:    r.gameConfig.TotalRounds,
			MaxTimePerTurn: r.gameConfig.MaxTimePerTurn,
		},
		Teams: []*models.Team{
			{ID: uuid.New(), Name: "Team 1", Color: "#3B82F6", Order: 1},
			{ID: uuid.New(), Name: "Team 2", Color: "#EF4444", Order: 2},
		},
		Players:   []*models.Player{host},
		CreatedAt: r.clock.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := generateCode()
		if _, taken := r.rooms[code]; taken {
			continue
		}
		game.Code = code
		rm := room.New(game, r.broadcaster, r.store, r.roomOpts)
		r.rooms[code] = rm
		log.Info().Str("code", code).Str("host", hostName).Msg("room created")
		return rm, host, nil
	}
	return nil, nil, models.NewGameError(models.ErrValidation, "could not allocate a room code")
}

// GetRoom looks up a room by its case-insensitive code.
func (r *Registry) GetRoom(code string) (*room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, models.NewGameError(models.ErrNotFound, "game %s not found", strings.ToUpper(code))
	}
	return rm, nil
}

// Run sweeps for evictable rooms until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(sweepInterval)
	defer ticker.Stop()
	log.Info().Msg("registry sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("registry sweeper stopped")
			return
		case <-ticker.Chan():
			r.sweep(ctx)
		}
	}
}

// sweep evicts rooms that never started within the lobby window and
// finished rooms past their linger window.
func (r *Registry) sweep(ctx context.Context) {
	r.mu.RLock()
	candidates := make([]*room.Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		candidates = append(candidates, rm)
	}
	r.mu.RUnlock()

	now := r.clock.Now()
	for _, rm := range candidates {
		info, err := rm.Info(ctx)
		if err != nil {
			// Room already closed; drop the table entry.
			r.evict(rm.Code())
			continue
		}
		idle := now.Sub(info.LastActivity)
		switch {
		case info.Status == models.GameStatusLobby && idle > r.lobbyTTL:
			log.Info().Str("code", info.Code).Dur("idle", idle).Msg("evicting idle lobby")
			r.evict(info.Code)
		case info.Status == models.GameStatusFinished && idle > r.finishedTTL:
			log.Info().Str("code", info.Code).Dur("idle", idle).Msg("evicting finished room")
			r.evict(info.Code)
		}
	}
}

// evict closes the room's connections first so no client keeps talking
// to a freed room, then stops and forgets the room.
func (r *Registry) evict(code string) {
	r.mu.Lock()
	rm, ok := r.rooms[code]
	if ok {
		delete(r.rooms, code)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	if r.closer != nil {
		r.closer.CloseRoom(code)
	}
	rm.Close()
}

// CloseAll tears down every room, used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	rooms := r.rooms
	r.rooms = make(map[string]*room.Room)
	r.mu.Unlock()
	for code, rm := range rooms {
		if r.closer != nil {
			r.closer.CloseRoom(code)
		}
		rm.Close()
	}
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

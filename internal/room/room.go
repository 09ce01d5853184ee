// Package room implements the per-game session engine: the round state
// machine, the server-authoritative timer, and the serialized application
// of concurrent client actions.
package room

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/actout/actout/internal/content"
	"github.com/actout/actout/internal/events"
	"github.com/actout/actout/internal/models"
	"github.com/actout/actout/internal/scoring"
)

// storeTimeout bounds content catalog calls made while holding the room's
// turn to mutate.
const storeTimeout = 5 * time.Second

// Broadcaster receives the single outbound event produced by each
// accepted state change.
type Broadcaster interface {
	BroadcastRoom(code string, event events.Event)
}

// Options configures a Room.
type Options struct {
	Clock     clockwork.Clock
	Scoring   *scoring.Table
	Policy    TurnPolicy
	Publisher events.Publisher
	// MailboxSize bounds queued commands per room.
	MailboxSize int
}

func (o *Options) fill() {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Scoring == nil {
		o.Scoring = scoring.MustDefault()
	}
	if o.Policy == nil {
		o.Policy = Alternation{}
	}
	if o.Publisher == nil {
		o.Publisher = events.NopPublisher{}
	}
	if o.MailboxSize <= 0 {
		o.MailboxSize = 256
	}
}

type result struct {
	val any
	err error
}

type envelope struct {
	cmd   Command
	reply chan result
}

// Info is the registry's view of a room's lifecycle.
type Info struct {
	Code         string
	Status       models.GameStatus
	Players      int
	CreatedAt    time.Time
	LastActivity time.Time
}

// Room owns one game. All mutations flow through a single goroutine
// consuming the inbox, so transitions never interleave. Rooms are fully
// independent of each other.
type Room struct {
	game        *models.Game
	clock       clockwork.Clock
	scoring     *scoring.Table
	store       content.Store
	policy      TurnPolicy
	publisher   events.Publisher
	broadcaster Broadcaster

	inbox     chan envelope
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine.
	roundTimer   clockwork.Timer
	timerCancel  chan struct{}
	usedPrompts  []uuid.UUID
	categories   map[uuid.UUID]models.CategoryView
	lastActivity time.Time
}

// New creates a room around an already-constructed game and starts its
// owner goroutine.
func New(game *models.Game, broadcaster Broadcaster, store content.Store, opts Options) *Room {
	opts.fill()
	r := &Room{
		game:         game,
		clock:        opts.Clock,
		scoring:      opts.Scoring,
		store:        store,
		policy:       opts.Policy,
		publisher:    opts.Publisher,
		broadcaster:  broadcaster,
		inbox:        make(chan envelope, opts.MailboxSize),
		done:         make(chan struct{}),
		categories:   make(map[uuid.UUID]models.CategoryView),
		lastActivity: opts.Clock.Now(),
	}
	go r.run()
	return r
}

// Code returns the game's join code.
func (r *Room) Code() string {
	return r.game.Code
}

func (r *Room) run() {
	log.Info().Str("code", r.game.Code).Msg("room started")
	for {
		select {
		case <-r.done:
			r.stopRoundTimer()
			log.Info().Str("code", r.game.Code).Msg("room stopped")
			return
		case env := <-r.inbox:
			val, err := r.apply(env.cmd)
			if env.reply != nil {
				env.reply <- result{val: val, err: err}
			}
		}
	}
}

// Do submits a command and waits for it to be applied in turn. The
// returned value depends on the command (JoinGame yields the player).
func (r *Room) Do(ctx context.Context, cmd Command) (any, error) {
	env := envelope{cmd: cmd, reply: make(chan result, 1)}
	select {
	case r.inbox <- env:
	case <-r.done:
		return nil, models.NewGameError(models.ErrNotFound, "game %s is closed", r.game.Code)
	case <-ctx.Done():
		return nil, busyError(r.game.Code)
	}
	select {
	case res := <-env.reply:
		return res.val, res.err
	case <-r.done:
		return nil, models.NewGameError(models.ErrNotFound, "game %s is closed", r.game.Code)
	case <-ctx.Done():
		return nil, busyError(r.game.Code)
	}
}

// busyError maps a caller's context expiry to a client-facing error
// instead of leaking the bare context message onto the wire.
func busyError(code string) error {
	return models.NewGameError(models.ErrStateConflict, "game %s is busy, try again", code)
}

// inject queues an internally generated command without waiting for a
// reply. Used by the timeout timer.
func (r *Room) inject(cmd Command) {
	select {
	case r.inbox <- envelope{cmd: cmd}:
	case <-r.done:
	}
}

// Snapshot returns the authoritative full state. If viewer is the current
// round's actor the actor-only token is included.
func (r *Room) Snapshot(ctx context.Context, viewer Sender) (models.GameSnapshot, error) {
	val, err := r.Do(ctx, snapshotReq{viewer: viewer})
	if err != nil {
		return models.GameSnapshot{}, err
	}
	return val.(models.GameSnapshot), nil
}

// PromptForToken returns the round's prompt if the token is the valid,
// still-live secret for that round. Fails closed on any mismatch.
func (r *Room) PromptForToken(ctx context.Context, roundID uuid.UUID, token string) (*models.Prompt, error) {
	val, err := r.Do(ctx, promptReq{roundID: roundID, token: token})
	if err != nil {
		return nil, err
	}
	return val.(*models.Prompt), nil
}

// Scoreboard returns end-of-game statistics.
func (r *Room) Scoreboard(ctx context.Context) (models.Scoreboard, error) {
	val, err := r.Do(ctx, scoreboardReq{})
	if err != nil {
		return models.Scoreboard{}, err
	}
	return val.(models.Scoreboard), nil
}

// Info returns lifecycle data for eviction decisions.
func (r *Room) Info(ctx context.Context) (Info, error) {
	val, err := r.Do(ctx, infoReq{})
	if err != nil {
		return Info{}, err
	}
	return val.(Info), nil
}

// Close stops the owner goroutine. Safe to call more than once. Callers
// must close the room's connections first so no client keeps talking to
// a freed room.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

// Read-only requests ride the same mailbox so they observe a consistent
// state with no mutation in flight.
type snapshotReq struct{ viewer Sender }
type promptReq struct {
	roundID uuid.UUID
	token   string
}
type scoreboardReq struct{}
type infoReq struct{}

func (snapshotReq) isCommand()   {}
func (promptReq) isCommand()     {}
func (scoreboardReq) isCommand() {}
func (infoReq) isCommand()       {}

package room

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/actout/actout/internal/events"
	"github.com/actout/actout/internal/models"
)

// apply runs one command against the room. It is only ever called from
// the owner goroutine. A recovered panic tears down this room alone.
func (r *Room) apply(cmd Command) (val any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("code", r.game.Code).Interface("panic", rec).Msg("room state corrupted, tearing down")
			r.broadcast(events.NewError("internal error, game closed"))
			r.Close()
			err = models.NewGameError(models.ErrStateConflict, "game %s closed after internal error", r.game.Code)
		}
	}()

	r.lastActivity = r.clock.Now()

	switch c := cmd.(type) {
	case JoinGame:
		return r.handleJoin(c)
	case AddPlayer:
		return r.handleAddPlayer(c)
	case AssignPlayer:
		return nil, r.handleAssignPlayer(c)
	case UpdateTeam:
		return nil, r.handleUpdateTeam(c)
	case UpdateSettings:
		return nil, r.handleUpdateSettings(c)
	case StartGame:
		return nil, r.handleStartGame(c)
	case SelectActor:
		return nil, r.handleSelectActor(c)
	case SelectCategory:
		return nil, r.handleSelectCategory(c)
	case ActorReady:
		return nil, r.handleActorReady(c)
	case StartTimer:
		return nil, r.handleStartTimer(c)
	case CorrectGuess:
		return nil, r.handleCorrectGuess(c)
	case Timeout:
		return nil, r.handleTimeout(c)
	case SkipRound:
		return nil, r.handleSkipRound(c)
	case NextRound:
		return nil, r.handleNextRound(c)
	case timerFired:
		return nil, r.handleTimerFired(c)
	case snapshotReq:
		return r.snapshotFor(c.viewer), nil
	case promptReq:
		return r.handlePromptReq(c)
	case scoreboardReq:
		return r.buildScoreboard(), nil
	case infoReq:
		return Info{
			Code:         r.game.Code,
			Status:       r.game.Status,
			Players:      len(r.game.Players),
			CreatedAt:    r.game.CreatedAt,
			LastActivity: r.lastActivity,
		}, nil
	default:
		return nil, models.NewGameError(models.ErrValidation, "unknown command %T", cmd)
	}
}

func (r *Room) broadcast(ev events.Event) {
	r.broadcaster.BroadcastRoom(r.game.Code, ev)
	r.publisher.Publish(r.game.Code, ev)
}

// requireHost guards host-only actions.
func (r *Room) requireHost(s Sender) error {
	p := r.game.PlayerByID(s.PlayerID)
	if p == nil || !p.IsHost {
		return models.NewGameError(models.ErrAuthorization, "only the host may perform this action")
	}
	return nil
}

// currentRoundFor resolves a round id against the current round. Unknown
// ids are NotFound; a stale id for a retired round is a conflict handled
// by the caller through the returned nil.
func (r *Room) currentRoundFor(id uuid.UUID) (*models.Round, error) {
	round := r.game.ActiveRound()
	if round != nil && round.ID == id {
		return round, nil
	}
	for _, old := range r.game.Rounds {
		if old.ID == id {
			// A command for a retired round is a late retry, not an error.
			return nil, nil
		}
	}
	return nil, models.NewGameError(models.ErrNotFound, "round %s not found", id)
}

func (r *Room) handleJoin(c JoinGame) (*models.Player, error) {
	if c.PlayerName == "" {
		return nil, models.NewGameError(models.ErrValidation, "player_name is required")
	}
	if c.SessionKey == "" {
		return nil, models.NewGameError(models.ErrValidation, "session_key is required")
	}

	if existing := r.game.PlayerBySessionKey(c.SessionKey); existing != nil {
		existing.Name = c.PlayerName
		log.Info().Str("code", r.game.Code).Str("player", c.PlayerName).Msg("player rejoined")
		r.broadcast(events.NewPlayerJoined(playerView(existing)))
		return existing, nil
	}

	if r.game.Status != models.GameStatusLobby {
		return nil, models.NewGameError(models.ErrValidation, "game has already started")
	}

	player := &models.Player{
		ID:         uuid.New(),
		Name:       c.PlayerName,
		SessionKey: c.SessionKey,
	}
	r.game.Players = append(r.game.Players, player)
	log.Info().Str("code", r.game.Code).Str("player", c.PlayerName).Msg("player joined")
	r.broadcast(events.NewPlayerJoined(playerView(player)))
	return player, nil
}

func (r *Room) handleAddPlayer(c AddPlayer) (*models.Player, error) {
	if err := r.requireHost(c.Sender); err != nil {
		return nil, err
	}
	if r.game.Status != models.GameStatusLobby {
		return nil, models.NewGameError(models.ErrValidation, "game has already started")
	}
	if c.PlayerName == "" {
		return nil, models.NewGameError(models.ErrValidation, "player_name is required")
	}
	if c.TeamID != nil && r.game.TeamByID(*c.TeamID) == nil {
		return nil, models.NewGameError(models.ErrNotFound, "team %s not found", *c.TeamID)
	}

	player := &models.Player{
		ID:         uuid.New(),
		Name:       c.PlayerName,
		SessionKey: "host_added_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		TeamID:     c.TeamID,
	}
	r.game.Players = append(r.game.Players, player)
	log.Info().Str("code", r.game.Code).Str("player", c.PlayerName).Msg("host added player")
	r.broadcast(events.New(events.TypeTeamUpdated, r.snapshot()))
	return player, nil
}

func (r *Room) handleAssignPlayer(c AssignPlayer) error {
	if err := r.requireHost(c.Sender); err != nil {
		return err
	}
	player := r.game.PlayerByID(c.PlayerID)
	if player == nil {
		return models.NewGameError(models.ErrNotFound, "player %s not found", c.PlayerID)
	}
	team := r.game.TeamByID(c.TeamID)
	if team == nil {
		return models.NewGameError(models.ErrNotFound, "team %s not found", c.TeamID)
	}
	id := team.ID
	player.TeamID = &id
	r.broadcast(events.New(events.TypeTeamUpdated, r.snapshot()))
	return nil
}

func (r *Room) handleUpdateTeam(c UpdateTeam) error {
	if err := r.requireHost(c.Sender); err != nil {
		return err
	}
	team := r.game.TeamByID(c.TeamID)
	if team == nil {
		return models.NewGameError(models.ErrNotFound, "team %s not found", c.TeamID)
	}
	if c.Name != nil {
		if *c.Name == "" {
			return models.NewGameError(models.ErrValidation, "team name must not be empty")
		}
		team.Name = *c.Name
	}
	if c.Color != nil {
		team.Color = *c.Color
	}
	r.broadcast(events.New(events.TypeTeamUpdated, r.snapshot()))
	return nil
}

func (r *Room) handleUpdateSettings(c UpdateSettings) error {
	if err := r.requireHost(c.Sender); err != nil {
		return err
	}
	if r.game.Status != models.GameStatusLobby {
		return models.NewGameError(models.ErrValidation, "settings are frozen once the game starts")
	}
	if c.TotalRounds != nil {
		if *c.TotalRounds <= 0 {
			return models.NewGameError(models.ErrValidation, "total_rounds must be positive")
		}
		r.game.Settings.TotalRounds = *c.TotalRounds
	}
	if c.MaxTimePerTurn != nil {
		if *c.MaxTimePerTurn <= 0 {
			return models.NewGameError(models.ErrValidation, "max_time_per_turn must be positive")
		}
		r.game.Settings.MaxTimePerTurn = *c.MaxTimePerTurn
	}
	if c.CategoryIDs != nil {
		if err := r.resolveCategories(c.CategoryIDs); err != nil {
			return err
		}
		r.game.Settings.CategoryIDs = c.CategoryIDs
	}
	r.broadcast(events.New(events.TypeSettingsUpdated, r.snapshot()))
	return nil
}

// resolveCategories validates the ids against the catalog and caches the
// display views used in snapshots.
func (r *Room) resolveCategories(ids []uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	resolved := make(map[uuid.UUID]models.CategoryView, len(ids))
	for _, id := range ids {
		cat, err := r.store.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		resolved[id] = models.CategoryView{ID: cat.ID, Name: cat.Name, NameAr: cat.NameAr, Icon: cat.Icon}
	}
	r.categories = resolved
	return nil
}

func (r *Room) handleStartGame(c StartGame) error {
	if err := r.requireHost(c.Sender); err != nil {
		return err
	}
	if r.game.Status != models.GameStatusLobby {
		// Duplicate start_game from a retried message.
		return nil
	}
	if len(r.game.Teams) < 2 {
		return models.NewGameError(models.ErrValidation, "need at least 2 teams")
	}
	for _, team := range r.game.Teams {
		if r.teamSize(team.ID) < 1 {
			return models.NewGameError(models.ErrValidation, "team %s needs at least 1 player", team.Name)
		}
	}
	if len(r.game.Settings.CategoryIDs) == 0 {
		return models.NewGameError(models.ErrValidation, "select at least one category before starting")
	}

	r.game.Status = models.GameStatusInProgress
	r.game.CurrentRound = 1
	r.createRound(1, nil)

	log.Info().Str("code", r.game.Code).Int("total_rounds", r.game.Settings.TotalRounds).Msg("game started")
	r.broadcast(events.New(events.TypeGameStarted, r.snapshot()))
	return nil
}

func (r *Room) teamSize(teamID uuid.UUID) int {
	n := 0
	for _, p := range r.game.Players {
		if p.TeamID != nil && *p.TeamID == teamID {
			n++
		}
	}
	return n
}

func (r *Room) createRound(number int, prev *models.Team) {
	team := r.policy.NextTeam(r.game.Teams, prev)
	round := &models.Round{
		ID:     uuid.New(),
		Number: number,
		TeamID: team.ID,
		Status: models.RoundStatusSelectingActor,
	}
	r.game.Rounds = append(r.game.Rounds, round)
}

func (r *Room) handleSelectActor(c SelectActor) error {
	round, err := r.currentRoundFor(c.RoundID)
	if err != nil {
		return err
	}
	if round == nil || round.Status != models.RoundStatusSelectingActor {
		return nil
	}
	player := r.game.PlayerByID(c.PlayerID)
	if player == nil {
		return models.NewGameError(models.ErrNotFound, "player %s not found", c.PlayerID)
	}
	if player.TeamID == nil || *player.TeamID != round.TeamID {
		return models.NewGameError(models.ErrValidation, "actor must be on the active team")
	}

	id := player.ID
	round.ActorID = &id
	round.Status = models.RoundStatusSelectingCategory
	log.Info().Str("code", r.game.Code).Int("round", round.Number).Str("actor", player.Name).Msg("actor selected")
	r.broadcast(events.New(events.TypeRoundUpdated, r.snapshot()))
	return nil
}

func (r *Room) handleSelectCategory(c SelectCategory) error {
	round, err := r.currentRoundFor(c.RoundID)
	if err != nil {
		return err
	}
	if round == nil || round.Status != models.RoundStatusSelectingCategory {
		return nil
	}
	if !r.game.CategoryEnabled(c.CategoryID) {
		return models.NewGameError(models.ErrValidation, "category is not enabled for this game")
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	prompt, err := r.store.DrawPrompt(ctx, c.CategoryID, r.usedPrompts)
	if err != nil {
		return err
	}

	catID := c.CategoryID
	promptID := prompt.ID
	round.CategoryID = &catID
	round.PromptID = &promptID
	round.Token = mintToken()
	round.Status = models.RoundStatusShowingQR
	r.usedPrompts = append(r.usedPrompts, prompt.ID)

	if err := r.store.MarkPromptUsed(ctx, prompt.ID); err != nil {
		log.Warn().Err(err).Str("code", r.game.Code).Msg("failed to bump prompt usage")
	}

	log.Info().Str("code", r.game.Code).Int("round", round.Number).Str("category", c.CategoryID.String()).Msg("category selected")
	r.broadcast(events.New(events.TypeRoundUpdated, r.snapshot()))
	return nil
}

func mintToken() string {
	// Two UUIDs worth of randomness; single-purpose, single-round.
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func (r *Room) handleActorReady(c ActorReady) error {
	round, err := r.currentRoundFor(c.RoundID)
	if err != nil {
		return err
	}
	if round == nil || round.Status != models.RoundStatusShowingQR {
		return nil
	}
	if round.ActorID == nil || c.Sender.PlayerID != *round.ActorID {
		return models.NewGameError(models.ErrAuthorization, "only the actor may signal readiness")
	}

	round.Status = models.RoundStatusActorReady
	r.broadcast(events.New(events.TypeActorReady, r.snapshot()))
	return nil
}

func (r *Room) handleStartTimer(c StartTimer) error {
	if err := r.requireHost(c.Sender); err != nil {
		return err
	}
	round, err := r.currentRoundFor(c.RoundID)
	if err != nil {
		return err
	}
	if round == nil || round.Status != models.RoundStatusActorReady {
		return nil
	}

	now := r.clock.Now()
	round.StartedAt = &now
	round.Status = models.RoundStatusActive
	r.scheduleTimeout(round.ID)

	log.Info().Str("code", r.game.Code).Int("round", round.Number).Time("started_at", now).Msg("timer started")
	r.broadcast(events.New(events.TypeTimerStarted, r.snapshot()))
	return nil
}

func (r *Room) handleCorrectGuess(c CorrectGuess) error {
	round, err := r.currentRoundFor(c.RoundID)
	if err != nil {
		return err
	}
	if round == nil || round.Status != models.RoundStatusActive {
		return nil
	}

	now := r.clock.Now()
	elapsed := now.Sub(*round.StartedAt)
	points := r.scoring.Score(elapsed)

	team := r.game.TeamByID(round.TeamID)
	team.TotalScore += points
	r.settleRound(round, models.RoundStatusGuessed, now, points, team.TotalScore)

	log.Info().
		Str("code", r.game.Code).
		Int("round", round.Number).
		Float64("time_taken", round.Result.TimeTaken).
		Int("points", points).
		Str("team", team.Name).
		Msg("round guessed")
	r.broadcast(events.NewRoundEnded(r.snapshot(), *round.Result))
	return nil
}

func (r *Room) handleTimeout(c Timeout) error {
	round, err := r.currentRoundFor(c.RoundID)
	if err != nil {
		return err
	}
	if round == nil || round.Status != models.RoundStatusActive {
		return nil
	}
	// The server clock is the only timeout authority. An early client
	// hint fails the guard and is ignored; the scheduled check will fire.
	maxTime := time.Duration(r.game.Settings.MaxTimePerTurn) * time.Second
	if r.clock.Now().Sub(*round.StartedAt) < maxTime {
		return nil
	}
	r.expireRound(round)
	return nil
}

func (r *Room) handleTimerFired(c timerFired) error {
	round, err := r.currentRoundFor(c.RoundID)
	if err != nil || round == nil || round.Status != models.RoundStatusActive {
		// The guess won the race; nothing to do.
		return nil
	}
	r.expireRound(round)
	return nil
}

func (r *Room) expireRound(round *models.Round) {
	now := r.clock.Now()
	team := r.game.TeamByID(round.TeamID)
	r.settleRound(round, models.RoundStatusTimeout, now, 0, team.TotalScore)

	log.Info().Str("code", r.game.Code).Int("round", round.Number).Msg("round timed out")
	r.broadcast(events.NewRoundEnded(r.snapshot(), *round.Result))
}

func (r *Room) handleSkipRound(c SkipRound) error {
	round, err := r.currentRoundFor(c.RoundID)
	if err != nil {
		return err
	}
	if round == nil || round.Status.Terminal() {
		return nil
	}

	now := r.clock.Now()
	team := r.game.TeamByID(round.TeamID)
	r.settleRound(round, models.RoundStatusSkipped, now, 0, team.TotalScore)

	log.Info().Str("code", r.game.Code).Int("round", round.Number).Msg("round skipped")
	r.broadcast(events.NewRoundEnded(r.snapshot(), *round.Result))
	return nil
}

// settleRound applies the shared terminal bookkeeping: result, timestamps,
// token invalidation, timer teardown.
func (r *Room) settleRound(round *models.Round, status models.RoundStatus, now time.Time, points, teamScore int) {
	timeTaken := 0.0
	if round.StartedAt != nil {
		timeTaken = roundTenth(now.Sub(*round.StartedAt).Seconds())
	}
	round.Status = status
	round.EndedAt = &now
	round.Token = ""
	round.Result = &models.RoundResult{
		Status:    status,
		TimeTaken: timeTaken,
		Points:    points,
		TeamScore: teamScore,
	}
	r.stopRoundTimer()
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func (r *Room) handleNextRound(c NextRound) error {
	if err := r.requireHost(c.Sender); err != nil {
		return err
	}
	if r.game.Status != models.GameStatusInProgress {
		return nil
	}
	round := r.game.ActiveRound()
	if round == nil || !round.Status.Terminal() {
		// Duplicate next_round after an advance, or premature call.
		return nil
	}

	if r.game.CurrentRound >= r.game.Settings.TotalRounds {
		r.game.Status = models.GameStatusFinished
		log.Info().Str("code", r.game.Code).Msg("game finished")
		r.broadcast(events.New(events.TypeGameFinished, r.snapshot()))
		return nil
	}

	prevTeam := r.game.TeamByID(round.TeamID)
	r.game.CurrentRound++
	r.createRound(r.game.CurrentRound, prevTeam)

	log.Info().Str("code", r.game.Code).Int("round", r.game.CurrentRound).Msg("advanced to next round")
	r.broadcast(events.New(events.TypeRoundUpdated, r.snapshot()))
	return nil
}

func (r *Room) handlePromptReq(c promptReq) (*models.Prompt, error) {
	var round *models.Round
	for _, rd := range r.game.Rounds {
		if rd.ID == c.roundID {
			round = rd
			break
		}
	}
	if round == nil {
		return nil, models.NewGameError(models.ErrToken, "invalid token")
	}
	// Fails closed: any mismatch, expired or foreign token gets the same
	// answer with no partial disclosure.
	if c.token == "" || round.Token == "" || round.Token != c.token {
		return nil, models.NewGameError(models.ErrToken, "invalid token")
	}
	switch round.Status {
	case models.RoundStatusShowingQR, models.RoundStatusActorReady, models.RoundStatusActive:
	default:
		return nil, models.NewGameError(models.ErrToken, "invalid token")
	}
	if round.PromptID == nil {
		return nil, models.NewGameError(models.ErrToken, "invalid token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	prompt, err := r.store.GetPrompt(ctx, *round.PromptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt: %w", err)
	}
	return prompt, nil
}

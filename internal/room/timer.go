package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// scheduleTimeout arms the server-side timeout check for the active
// round. When it fires, the timeout travels the mailbox like any other
// command, so a guess enqueued first always wins the race.
func (r *Room) scheduleTimeout(roundID uuid.UUID) {
	r.stopRoundTimer()

	duration := time.Duration(r.game.Settings.MaxTimePerTurn) * time.Second
	timer := r.clock.NewTimer(duration)
	cancel := make(chan struct{})
	r.roundTimer = timer
	r.timerCancel = cancel

	go func() {
		select {
		case <-timer.Chan():
			r.inject(timerFired{RoundID: roundID})
		case <-cancel:
		case <-r.done:
			stopAndDrainTimer(timer)
		}
	}()

	log.Debug().
		Str("code", r.game.Code).
		Dur("duration", duration).
		Msg("scheduled round timeout")
}

// stopRoundTimer disarms any pending timeout check.
func (r *Room) stopRoundTimer() {
	if r.roundTimer == nil {
		return
	}
	stopAndDrainTimer(r.roundTimer)
	close(r.timerCancel)
	r.roundTimer = nil
	r.timerCancel = nil
}

// stopAndDrainTimer stops a timer and drains its channel so the waiting
// goroutine can never leak.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

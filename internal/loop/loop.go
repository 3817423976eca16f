// package loop implements the reactive cycle that keeps the play queue
// stocked: block on the server's idle notification, re-read state, top the
// queue back up from the shuffle chain.
package loop

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/qfill/internal/mpd"
	"github.com/desertthunder/qfill/internal/shared"
	"github.com/desertthunder/qfill/internal/shuffle"
)

// Options configure queue maintenance.
type Options struct {
	// BufferDepth is the number of tracks to keep queued beyond the one
	// currently playing.
	BufferDepth int

	// SkipInit skips the startup refill. Tests use it to exercise a single
	// wake cycle in isolation.
	SkipInit bool
}

// Run drives the queue-fill loop until the context is cancelled or the done
// predicate returns true. done is checked before each blocking wait; nil
// means run forever.
//
// At startup, a server that is already playing is left entirely alone —
// something else is driving playback. Otherwise the queue is refilled and
// playback started on the first newly queued track. On each wake the queue is
// topped up so BufferDepth tracks remain beyond the current position; a
// player found stopped at or past the end of the queue is restarted the same
// way as at init. Cancellation takes effect between cycles, never mid-batch.
//
// Session errors and picks from an empty chain end the loop with an error.
func Run(ctx context.Context, session mpd.Session, chain *shuffle.Chain, opts Options, done func() bool, logger *log.Logger) error {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	if !opts.SkipInit {
		state, err := session.QueueState(ctx)
		if err != nil {
			return err
		}
		if !state.Playing {
			if err := restart(ctx, session, chain, state, opts, logger); err != nil {
				return err
			}
		}
	}

	for done == nil || !done() {
		if _, err := session.AwaitChange(ctx); err != nil {
			if ctx.Err() != nil {
				logger.Debug("loop cancelled")
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			logger.Debug("loop cancelled")
			return nil
		}

		state, err := session.QueueState(ctx)
		if err != nil {
			return err
		}

		switch {
		case state.Playing:
			if err := topUp(ctx, session, chain, state, opts, logger); err != nil {
				return err
			}
		case state.AtEnd():
			if err := restart(ctx, session, chain, state, opts, logger); err != nil {
				return err
			}
		default:
			// Stopped mid-queue: the user stopped playback deliberately.
		}
	}
	return nil
}

// restart refills a stopped player: enqueue BufferDepth+1 picks and start
// playback on the first of them.
func restart(ctx context.Context, session mpd.Session, chain *shuffle.Chain, state *mpd.State, opts Options, logger *log.Logger) error {
	first := len(state.Queue)
	need := opts.BufferDepth + 1

	if err := enqueue(ctx, session, chain, need); err != nil {
		return err
	}
	logger.Info("queued tracks", "count", need)

	if err := session.PlayAt(ctx, first); err != nil {
		return err
	}
	return session.Play(ctx)
}

// topUp appends exactly as many picks as needed so BufferDepth tracks remain
// queued beyond the current position. Playback state is never touched.
func topUp(ctx context.Context, session mpd.Session, chain *shuffle.Chain, state *mpd.State, opts Options, logger *log.Logger) error {
	remaining := len(state.Queue) - 1 - state.Position
	need := opts.BufferDepth - remaining
	if need <= 0 {
		return nil
	}

	if err := enqueue(ctx, session, chain, need); err != nil {
		return err
	}
	logger.Info("queued tracks", "count", need)
	return nil
}

func enqueue(ctx context.Context, session mpd.Session, chain *shuffle.Chain, count int) error {
	for i := 0; i < count; i++ {
		uri, err := chain.Pick()
		if err != nil {
			return err
		}
		if err := session.Enqueue(ctx, uri); err != nil {
			return err
		}
	}
	return nil
}

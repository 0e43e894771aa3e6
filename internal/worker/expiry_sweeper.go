package worker

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	SweepInterval = 1 * time.Minute
	SweepBatch    = 500
)

// ExpirySweeper periodically marks sessions past their grace buffer as
// EXPIRED. The request handlers already detect expiry lazily, so the sweep is
// purely hygiene: it keeps abandoned sessions from sitting IN_PROGRESS
// forever and off the active-session read path. It applies the same
// conditional transition the handlers use, so running it concurrently with
// traffic is safe.
type ExpirySweeper struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewExpirySweeper(pool *pgxpool.Pool, log zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		pool: pool,
		log:  log.With().Str("component", "expiry_sweeper").Logger(),
	}
}

func (w *ExpirySweeper) Start(ctx context.Context) {
	w.log.Info().Msg("ExpirySweeper started")

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpirySweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	tag, err := w.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = 'EXPIRED'
		 WHERE id IN (
		   SELECT id FROM exam_sessions
		   WHERE status = 'IN_PROGRESS' AND expires_at < NOW()
		   LIMIT $1
		 )`, SweepBatch)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Sweep failed")
		}
		return
	}
	if n := tag.RowsAffected(); n > 0 {
		w.log.Info().Int64("sessions", n).Msg("Expired abandoned sessions")
	}
}

package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/duty-bot/internal/persistence"
)

// DefaultNotifyTimeout is how long a conversation is not re-sent the
// "on duty today" announcement.
const DefaultNotifyTimeout = 10 * time.Minute

// NotificationGate records the last announcement per conversation.
type NotificationGate interface {
	// Acquire reports true and records now when no announcement was recorded
	// for peerID within window. Check and record are atomic.
	Acquire(ctx context.Context, peerID int64, now time.Time, window time.Duration) (bool, error)
	// Reset forgets the recorded announcement for peerID.
	Reset(ctx context.Context, peerID int64) error
}

// Throttle suppresses repeated announcements to the same conversation.
type Throttle struct {
	gate    NotificationGate
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewThrottle constructs a throttle with a specified logger.
func NewThrottle(gate NotificationGate, timeout time.Duration, now func() time.Time, logger *slog.Logger) *Throttle {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Throttle{gate: gate, timeout: timeout, now: now, logger: defaultLogger(logger)}
}

// ShouldNotify reports whether peerID may receive the announcement now.
func (t *Throttle) ShouldNotify(ctx context.Context, peerID int64) (bool, error) {
	ok, err := t.gate.Acquire(ctx, peerID, t.now(), t.timeout)
	if err != nil {
		serviceLogger(ctx, t.logger, "Throttle", "ShouldNotify", "peer_id", peerID).
			ErrorContext(ctx, "failed to check notification gate", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	return ok, nil
}

// Reset lets the next ShouldNotify for peerID pass.
func (t *Throttle) Reset(ctx context.Context, peerID int64) error {
	if err := t.gate.Reset(ctx, peerID); err != nil {
		serviceLogger(ctx, t.logger, "Throttle", "Reset", "peer_id", peerID).
			ErrorContext(ctx, "failed to reset notification gate", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// StoreGate keeps announcement timestamps in the transactional store.
type StoreGate struct {
	store persistence.Store
}

// NewStoreGate returns a gate backed by the last_requests records of store.
func NewStoreGate(store persistence.Store) *StoreGate {
	return &StoreGate{store: store}
}

// Acquire records now for peerID in one transaction unless the stored
// timestamp is at most window old.
func (g *StoreGate) Acquire(ctx context.Context, peerID int64, now time.Time, window time.Duration) (ok bool, err error) {
	if g == nil || g.store == nil {
		return false, ErrStoreNotConfigured
	}
	err = g.store.WithTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		prior, err := tx.GetLastRequest(ctx, peerID)
		switch {
		case errors.Is(err, persistence.ErrNotFound):
		case err != nil:
			return err
		case now.Sub(prior) <= window:
			ok = false
			return nil
		}
		ok = true
		return tx.PutLastRequest(ctx, peerID, now)
	})
	return ok, err
}

// Reset deletes the stored timestamp of peerID.
func (g *StoreGate) Reset(ctx context.Context, peerID int64) error {
	if g == nil || g.store == nil {
		return ErrStoreNotConfigured
	}
	return g.store.WithTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return tx.DeleteLastRequest(ctx, peerID)
	})
}

package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/duty-bot/internal/persistence"
)

// AdminService manages the administrators allowed to change the rotation.
type AdminService struct {
	store  persistence.Store
	logger *slog.Logger
}

// NewAdminService constructs an admin service.
func NewAdminService(store persistence.Store) *AdminService {
	return NewAdminServiceWithLogger(store, nil)
}

// NewAdminServiceWithLogger constructs an admin service with a specified logger.
func NewAdminServiceWithLogger(store persistence.Store, logger *slog.Logger) *AdminService {
	return &AdminService{store: store, logger: defaultLogger(logger)}
}

func (s *AdminService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AdminService", operation, attrs...)
}

func (s *AdminService) withTx(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	return s.store.WithTx(ctx, fn)
}

// SeedAdmin makes userID an administrator when there are no administrators
// at all, and reports whether it did.
func (s *AdminService) SeedAdmin(ctx context.Context, userID int64) (seeded bool, err error) {
	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		admins, err := tx.ListAdmins(ctx)
		if err != nil || len(admins) > 0 {
			return err
		}
		seeded = true
		return tx.AddAdmin(ctx, userID)
	})
	if err != nil {
		s.loggerWith(ctx, "SeedAdmin", "user_id", userID).
			ErrorContext(ctx, "failed to seed admin", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	if seeded {
		s.loggerWith(ctx, "SeedAdmin", "user_id", userID).InfoContext(ctx, "bootstrap admin seeded")
	}
	return seeded, nil
}

// AddAdmin grants administrator rights and reports whether the user was not
// an administrator before.
func (s *AdminService) AddAdmin(ctx context.Context, userID int64) (added bool, err error) {
	logger := s.loggerWith(ctx, "AddAdmin", "user_id", userID)
	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		err := tx.AddAdmin(ctx, userID)
		if errors.Is(err, persistence.ErrDuplicate) {
			return nil
		}
		if err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to add admin", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	logger.InfoContext(ctx, "admin granted", "added", added)
	return added, nil
}

// RemoveAdmin revokes administrator rights and reports whether the user was an
// administrator.
func (s *AdminService) RemoveAdmin(ctx context.Context, userID int64) (removed bool, err error) {
	logger := s.loggerWith(ctx, "RemoveAdmin", "user_id", userID)
	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		err := tx.DeleteAdmin(ctx, userID)
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to remove admin", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	logger.InfoContext(ctx, "admin revoked", "removed", removed)
	return removed, nil
}

// IsAdmin reports whether userID is an administrator.
func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (ok bool, err error) {
	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		ok, err = tx.IsAdmin(ctx, userID)
		return err
	})
	return ok, err
}

// ListAdmins returns administrator ids in ascending order.
func (s *AdminService) ListAdmins(ctx context.Context) (admins []int64, err error) {
	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		admins, err = tx.ListAdmins(ctx)
		return err
	})
	return admins, err
}

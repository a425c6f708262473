package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/example/duty-bot/internal/persistence"
	"github.com/example/duty-bot/internal/rotation"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want string
	}{
		"nil":                 {err: nil, want: ""},
		"room not found":      {err: fmt.Errorf("set: %w", ErrRoomNotFound), want: "room_not_found"},
		"inconsistent anchor": {err: &rotation.InconsistentAnchorError{Side: rotation.Left, Room: 601}, want: "inconsistent_anchor"},
		"not found":           {err: persistence.ErrNotFound, want: "not_found"},
		"duplicate":           {err: persistence.ErrDuplicate, want: "duplicate"},
		"canceled":            {err: context.Canceled, want: "canceled"},
		"other":               {err: errors.New("disk full"), want: "unexpected"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorKind(tt.err); got != tt.want {
				t.Fatalf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

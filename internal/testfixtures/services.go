package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/duty-bot/internal/application"
	"github.com/example/duty-bot/internal/persistence"
	"github.com/example/duty-bot/internal/rotation"
)

// ServiceFactory assists tests with constructing application services using
// a deterministic clock and layout.
type ServiceFactory struct {
	Clock    *Clock
	Layout   rotation.Layout
	Location *time.Location
	Logger   *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:    NewClock(time.Time{}),
		Layout:   SmallLayout(),
		Location: time.UTC,
		Logger:   DiscardLogger(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithLayout overrides the floor layout.
func WithLayout(layout rotation.Layout) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Layout = layout
	}
}

// WithLocation overrides the floor time zone.
func WithLocation(location *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = location
	}
}

// NewDutyService builds a duty service on store.
func (f *ServiceFactory) NewDutyService(store persistence.Store) *application.DutyService {
	return application.NewDutyServiceWithLogger(store, f.Layout, f.Location, f.Clock.NowFunc(), f.Logger)
}

// NewAdminService builds an admin service on store.
func (f *ServiceFactory) NewAdminService(store persistence.Store) *application.AdminService {
	return application.NewAdminServiceWithLogger(store, f.Logger)
}

// NewThrottle builds a throttle over gate.
func (f *ServiceFactory) NewThrottle(gate application.NotificationGate, timeout time.Duration) *application.Throttle {
	return application.NewThrottle(gate, timeout, f.Clock.NowFunc(), f.Logger)
}

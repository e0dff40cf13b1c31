package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/slotswapper/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// SlotServiceDeps captures dependencies for constructing a slot service.
type SlotServiceDeps struct {
	Slots       application.SlotStore
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewSlotService builds a slot service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewSlotService(deps SlotServiceDeps) *application.SlotService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewSlotServiceWithLogger(
		deps.Slots,
		idGen,
		now,
		deps.Logger,
	)
}

// SwapServiceDeps captures dependencies for constructing a swap service.
type SwapServiceDeps struct {
	Swaps       application.SwapRequestStore
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewSwapService builds a swap service using the supplied dependencies.
func (f *ServiceFactory) NewSwapService(deps SwapServiceDeps) *application.SwapService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewSwapServiceWithLogger(
		deps.Swaps,
		idGen,
		now,
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Users          application.UserStore
	Sessions       application.SessionStore
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAuthServiceWithLogger(
		deps.Users,
		deps.Sessions,
		idGen,
		token,
		now,
		deps.SessionTTL,
		deps.Logger,
	)
}

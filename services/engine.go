package services

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/yeremiapane/table-reservations/repository"
)

// Options configures an Engine. Zero values fall back to the defaults.
type Options struct {
	Policy       *BookingPolicy
	Clock        clockwork.Clock
	Locker       SlotLocker
	LockWait     time.Duration
	Publisher    EventPublisher
	ReleaseStale bool
}

// Engine wires every reservation component around one store.
type Engine struct {
	Tables       *TableDirectory
	Availability *AvailabilityResolver
	Assigner     *Assigner
	Reservations *ReservationService
	Scheduler    *StatusScheduler
}

func NewEngine(store repository.Store, opts Options) (*Engine, error) {
	policy := DefaultBookingPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Locker == nil {
		opts.Locker = NewLocalSlotLocker()
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 5 * time.Second
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}

	resolver := NewAvailabilityResolver(store, policy, opts.Clock)
	assigner := NewAssigner(resolver)
	return &Engine{
		Tables:       NewTableDirectory(store, policy, opts.Clock, opts.Publisher),
		Availability: resolver,
		Assigner:     assigner,
		Reservations: NewReservationService(store, resolver, assigner, opts.Locker, opts.LockWait, opts.Clock, opts.Publisher),
		Scheduler:    NewStatusScheduler(store, policy, opts.Clock, opts.Publisher, opts.ReleaseStale),
	}, nil
}

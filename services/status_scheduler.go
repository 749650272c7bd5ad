package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/repository"
	"github.com/yeremiapane/table-reservations/utils"
)

const schedulerSource = "scheduler"

// PassResult summarizes one status pass.
type PassResult struct {
	Scanned         int `json:"scanned"`
	Reserved        int `json:"reserved"`
	AlreadyReserved int `json:"already_reserved"`
	Occupied        int `json:"occupied"`
	Skipped         int `json:"skipped"`
	Released        int `json:"released"`
}

// StatusScheduler marks tables reserved once the lead window of their next
// reservation opens. A pass only ever moves a table to reserved (or, with
// releaseStale, from reserved back to available) and never touches an
// occupied table, so passes may overlap or repeat freely.
type StatusScheduler struct {
	store        repository.Store
	policy       BookingPolicy
	clock        clockwork.Clock
	events       emitter
	releaseStale bool
	passTimeout  time.Duration

	mu   sync.Mutex
	cron gocron.Scheduler
}

func NewStatusScheduler(store repository.Store, policy BookingPolicy, clock clockwork.Clock, publisher EventPublisher, releaseStale bool) *StatusScheduler {
	return &StatusScheduler{
		store:        store,
		policy:       policy,
		clock:        clock,
		events:       emitter{publisher: publisher, clock: clock},
		releaseStale: releaseStale,
		passTimeout:  30 * time.Second,
	}
}

// RunPass evaluates today's pending and confirmed reservations once. A
// reservation whose table cannot be read is logged and skipped; only a
// failure to list reservations aborts the pass.
func (s *StatusScheduler) RunPass(ctx context.Context) (PassResult, error) {
	var result PassResult
	now := s.clock.Now()
	today := s.policy.Today(now).Format(DateLayout)

	reservations, err := s.store.Reservations().List(ctx, models.ReservationFilter{
		Date:     today,
		Statuses: models.ActiveReservationStatuses,
	})
	if err != nil {
		return result, fmt.Errorf("list today's reservations: %w", err)
	}

	for _, r := range reservations {
		result.Scanned++
		if r.TableNumber == nil {
			continue
		}
		slot, err := s.policy.SlotAt(r.Date, r.Time)
		if err != nil {
			s.skip(&result, r, err)
			continue
		}
		if !s.policy.LeadWindowOpen(now, slot) {
			continue
		}
		s.reserve(ctx, &result, r)
	}

	if s.releaseStale {
		if err := s.release(ctx, &result, now, reservations); err != nil {
			utils.ErrorLogger.Errorf("scheduler: release stale holds: %v", err)
		}
	}
	return result, nil
}

func (s *StatusScheduler) reserve(ctx context.Context, result *PassResult, r models.Reservation) {
	number := *r.TableNumber
	table, err := s.store.Tables().GetByNumber(ctx, number)
	if err != nil {
		s.skip(result, r, err)
		return
	}

	switch table.Status {
	case models.TableReserved:
		result.AlreadyReserved++
		return
	case models.TableOccupied:
		result.Occupied++
		return
	}

	// conditional write: staff may seat a party between the read and here
	changed, err := s.store.Tables().CompareAndSetStatus(ctx, number, models.TableReserved,
		models.TableOccupied, models.TableReserved)
	if err != nil {
		s.skip(result, r, err)
		return
	}
	if !changed {
		result.Occupied++
		return
	}

	result.Reserved++
	utils.InfoLogger.WithFields(logrus.Fields{
		"table":       number,
		"reservation": r.ID,
		"slot":        r.Date + " " + r.Time,
	}).Info("table reserved ahead of reservation")
	s.events.emit(ctx, models.EventTableStatusChanged, models.TableStatusChange{
		TableNumber:    number,
		Status:         models.TableReserved,
		PreviousStatus: table.Status,
		Source:         schedulerSource,
	})
}

// release frees reserved tables that no reservation is holding right now:
// none of today's active reservations on the table is inside its lead window
// or its hour.
func (s *StatusScheduler) release(ctx context.Context, result *PassResult, now time.Time, reservations []models.Reservation) error {
	reserved, err := s.store.Tables().ListByStatus(ctx, models.TableReserved)
	if err != nil {
		return err
	}

	held := make(map[string]bool)
	for _, r := range reservations {
		if r.TableNumber == nil {
			continue
		}
		slot, err := s.policy.SlotAt(r.Date, r.Time)
		if err != nil {
			continue
		}
		if !now.Before(slot.Start.Add(-s.policy.LeadWindow)) && now.Before(slot.Start.Add(time.Hour)) {
			held[*r.TableNumber] = true
		}
	}

	for _, t := range reserved {
		if held[t.TableNumber] {
			continue
		}
		changed, err := s.store.Tables().CompareAndSetStatus(ctx, t.TableNumber, models.TableAvailable,
			models.TableAvailable, models.TableOccupied, models.TableCleaning)
		if err != nil {
			utils.ErrorLogger.Errorf("scheduler: release table %s: %v", t.TableNumber, err)
			continue
		}
		if changed {
			result.Released++
			s.events.emit(ctx, models.EventTableStatusChanged, models.TableStatusChange{
				TableNumber:    t.TableNumber,
				Status:         models.TableAvailable,
				PreviousStatus: models.TableReserved,
				Source:         schedulerSource,
			})
		}
	}
	return nil
}

func (s *StatusScheduler) skip(result *PassResult, r models.Reservation, err error) {
	result.Skipped++
	entry := utils.ErrorLogger.WithFields(logrus.Fields{
		"reservation": r.ID,
		"slot":        r.Date + " " + r.Time,
	})
	if r.TableNumber != nil {
		entry = entry.WithField("table", *r.TableNumber)
	}
	if errors.Is(err, repository.ErrNotFound) {
		entry.Error("scheduler: assigned table no longer exists, skipping")
		return
	}
	entry.Errorf("scheduler: skipping reservation: %v", err)
}

func (s *StatusScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.passTimeout)
	defer cancel()

	result, err := s.RunPass(ctx)
	if err != nil {
		utils.ErrorLogger.Errorf("scheduler: pass failed: %v", err)
		return
	}
	if result.Reserved > 0 || result.Released > 0 || result.Skipped > 0 {
		utils.InfoLogger.WithFields(logrus.Fields{
			"scanned":  result.Scanned,
			"reserved": result.Reserved,
			"released": result.Released,
			"skipped":  result.Skipped,
		}).Info("scheduler pass finished")
	}
}

// Start runs a pass immediately and then every interval until Stop. The
// interval is measured on the engine clock.
func (s *StatusScheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	cron, err := gocron.NewScheduler(
		gocron.WithLocation(s.policy.location()),
		gocron.WithClock(s.clock),
	)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	j, err := cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.tick),
		gocron.WithName("table-status-pass"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = cron.Shutdown()
		return fmt.Errorf("schedule status pass: %w", err)
	}
	cron.Start()
	s.cron = cron

	utils.InfoLogger.Printf("Status scheduler started: job=%s interval=%s", j.ID().String(), interval)
	return nil
}

func (s *StatusScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return nil
	}
	err := s.cron.Shutdown()
	s.cron = nil
	return err
}

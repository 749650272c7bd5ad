package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/repository"
)

// AvailabilityResolver computes which tables are free for a slot by
// cross-referencing the table directory with the reservation store.
type AvailabilityResolver struct {
	store  repository.Store
	policy BookingPolicy
	clock  clockwork.Clock
}

func NewAvailabilityResolver(store repository.Store, policy BookingPolicy, clock clockwork.Clock) *AvailabilityResolver {
	return &AvailabilityResolver{store: store, policy: policy, clock: clock}
}

func (a *AvailabilityResolver) Policy() BookingPolicy {
	return a.policy
}

// ValidateRequest checks date, time and party size in that order. Nothing is
// read from storage.
func (a *AvailabilityResolver) ValidateRequest(date, clock string, partySize int) (Slot, error) {
	slot, err := a.policy.ValidateSlot(a.clock.Now(), date, clock)
	if err != nil {
		return Slot{}, err
	}
	if partySize < 1 {
		return Slot{}, newError(ErrInvalidPartySize, "party_size", "party size must be at least 1, got %d", partySize)
	}
	return slot, nil
}

// FindAvailableTables returns the tables that can seat partySize at the given
// slot, smallest fitting table first. An empty result is not an error.
func (a *AvailabilityResolver) FindAvailableTables(ctx context.Context, date, clock string, partySize int) ([]models.Table, error) {
	slot, err := a.ValidateRequest(date, clock, partySize)
	if err != nil {
		return nil, err
	}
	return a.candidates(ctx, a.store, slot, partySize, "")
}

// candidates runs the resolution against store, which may be bound to a
// transaction. excludeID drops one reservation from the collision check so an
// edited reservation does not collide with itself.
func (a *AvailabilityResolver) candidates(ctx context.Context, store repository.Store, slot Slot, partySize int, excludeID string) ([]models.Table, error) {
	tables, err := store.Tables().List(ctx)
	if err != nil {
		return nil, err
	}
	booked, err := store.Reservations().List(ctx, models.ReservationFilter{
		Date:      slot.Date,
		Time:      slot.Time,
		Statuses:  models.ActiveReservationStatuses,
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(booked))
	for _, r := range booked {
		if r.TableNumber != nil {
			taken[*r.TableNumber] = true
		}
	}

	// Once the lead window is open the slot is effectively now, so a table
	// with a party still seated cannot be offered.
	imminent := !a.clock.Now().Before(slot.Start.Add(-a.policy.LeadWindow))

	free := make([]models.Table, 0, len(tables))
	for _, t := range tables {
		if t.Capacity < partySize || taken[t.TableNumber] {
			continue
		}
		if imminent && t.Status == models.TableOccupied {
			continue
		}
		free = append(free, t)
	}

	sort.SliceStable(free, func(i, j int) bool {
		if free[i].Capacity != free[j].Capacity {
			return free[i].Capacity < free[j].Capacity
		}
		return free[i].TableNumber < free[j].TableNumber
	})
	return free, nil
}

type SlotAvailability struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	FreeTables int    `json:"free_tables"`
}

// AvailableSlots lists every still bookable hour of date with the number of
// tables free for partySize.
func (a *AvailabilityResolver) AvailableSlots(ctx context.Context, date string, partySize int) ([]SlotAvailability, error) {
	if partySize < 1 {
		return nil, newError(ErrInvalidPartySize, "party_size", "party size must be at least 1, got %d", partySize)
	}
	slots, err := a.policy.OpenSlots(a.clock.Now(), date)
	if err != nil {
		return nil, err
	}

	result := make([]SlotAvailability, 0, len(slots))
	for _, s := range slots {
		free, err := a.candidates(ctx, a.store, s, partySize, "")
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", s, err)
		}
		result = append(result, SlotAvailability{Date: s.Date, Time: s.Time, FreeTables: len(free)})
	}
	return result, nil
}

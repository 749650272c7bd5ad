package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/repository"
)

type AssignmentMode string

const (
	AssignAutomatic AssignmentMode = "automatic"
	AssignManual    AssignmentMode = "manual"
)

// Assigner picks a table for a slot out of the resolver's candidates.
type Assigner struct {
	resolver *AvailabilityResolver
}

func NewAssigner(resolver *AvailabilityResolver) *Assigner {
	return &Assigner{resolver: resolver}
}

// Mode reports which strategy a request uses: manual when the caller named
// a table.
func Mode(tableNumber *string) AssignmentMode {
	if tableNumber != nil && *tableNumber != "" {
		return AssignManual
	}
	return AssignAutomatic
}

// Automatic returns the best-fit free table.
func (s *Assigner) Automatic(ctx context.Context, store repository.Store, slot Slot, partySize int, excludeID string) (*models.Table, error) {
	free, err := s.resolver.candidates(ctx, store, slot, partySize, excludeID)
	if err != nil {
		return nil, err
	}
	if len(free) == 0 {
		return nil, newError(ErrNoAvailability, "party_size",
			"no table for %d guests is free at %s", partySize, slot)
	}
	return &free[0], nil
}

// Manual confirms that tableNumber is still free for the slot at the moment
// of the call.
func (s *Assigner) Manual(ctx context.Context, store repository.Store, slot Slot, partySize int, tableNumber, excludeID string) (*models.Table, error) {
	free, err := s.resolver.candidates(ctx, store, slot, partySize, excludeID)
	if err != nil {
		return nil, err
	}
	for i := range free {
		if free[i].TableNumber == tableNumber {
			return &free[i], nil
		}
	}

	table, err := store.Tables().GetByNumber(ctx, tableNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "table_number", "table %s does not exist", tableNumber)
	}
	if err != nil {
		return nil, err
	}
	if table.Capacity < partySize {
		return nil, newError(ErrTableUnavailable, "party_size",
			"table %s seats %d, party of %d does not fit", tableNumber, table.Capacity, partySize)
	}
	return nil, newError(ErrTableUnavailable, "table_number",
		"table %s is not available at %s", tableNumber, slot)
}

// Assign dispatches to Manual or Automatic depending on tableNumber.
func (s *Assigner) Assign(ctx context.Context, store repository.Store, slot Slot, partySize int, tableNumber *string, excludeID string) (*models.Table, error) {
	if Mode(tableNumber) == AssignManual {
		return s.Manual(ctx, store, slot, partySize, *tableNumber, excludeID)
	}
	return s.Automatic(ctx, store, slot, partySize, excludeID)
}

// Prefer keeps preferred when it is still free and falls back to the
// best-fit table otherwise.
func (s *Assigner) Prefer(ctx context.Context, store repository.Store, slot Slot, partySize int, preferred, excludeID string) (*models.Table, error) {
	free, err := s.resolver.candidates(ctx, store, slot, partySize, excludeID)
	if err != nil {
		return nil, err
	}
	for i := range free {
		if free[i].TableNumber == preferred {
			return &free[i], nil
		}
	}
	if len(free) == 0 {
		return nil, newError(ErrNoAvailability, "party_size",
			"no table for %d guests is free at %s", partySize, slot)
	}
	return &free[0], nil
}

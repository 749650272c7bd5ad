package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/repository"
	"github.com/yeremiapane/table-reservations/utils"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,19}$`)

// ValidPhone reports whether s looks like a dialable phone number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

type CreateReservationInput struct {
	Date            string
	Time            string
	PartySize       int
	ContactPhone    string
	CustomerName    *string
	SpecialRequests *string
	// TableNumber selects manual assignment; nil or empty means automatic.
	TableNumber *string
}

// ReservationService is the single entry point for reservation mutations.
// Every mutation that can bind a table runs under the slot lock and inside
// one transaction that re-resolves availability before writing.
type ReservationService struct {
	store    repository.Store
	resolver *AvailabilityResolver
	assigner *Assigner
	locker   SlotLocker
	lockWait time.Duration
	clock    clockwork.Clock
	events   emitter
}

func NewReservationService(store repository.Store, resolver *AvailabilityResolver, assigner *Assigner, locker SlotLocker, lockWait time.Duration, clock clockwork.Clock, publisher EventPublisher) *ReservationService {
	return &ReservationService{
		store:    store,
		resolver: resolver,
		assigner: assigner,
		locker:   locker,
		lockWait: lockWait,
		clock:    clock,
		events:   emitter{publisher: publisher, clock: clock},
	}
}

// Create validates the request, assigns a table and stores the reservation
// as pending.
func (m *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*models.Reservation, error) {
	slot, err := m.resolver.ValidateRequest(in.Date, in.Time, in.PartySize)
	if err != nil {
		return nil, err
	}
	if err := validatePhone(in.ContactPhone); err != nil {
		return nil, err
	}

	reservation := &models.Reservation{
		Date:            slot.Date,
		Time:            slot.Time,
		PartySize:       in.PartySize,
		CustomerName:    trimmed(in.CustomerName),
		ContactPhone:    strings.TrimSpace(in.ContactPhone),
		SpecialRequests: trimmed(in.SpecialRequests),
	}

	err = m.withSlot(ctx, slot, func() error {
		return m.store.Transaction(ctx, func(tx repository.Store) error {
			table, err := m.assigner.Assign(ctx, tx, slot, in.PartySize, in.TableNumber, "")
			if err != nil {
				return err
			}
			reservation.TableNumber = &table.TableNumber
			if err := tx.Reservations().Create(ctx, reservation); err != nil {
				return m.collision(err, table.TableNumber, slot)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation": reservation.ID,
		"slot":        slot.String(),
		"party_size":  reservation.PartySize,
		"table":       *reservation.TableNumber,
		"mode":        Mode(in.TableNumber),
	}).Info("reservation created")
	m.events.emit(ctx, models.EventReservationCreated, reservation)
	return reservation, nil
}

func (m *ReservationService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := m.store.Reservations().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "id", "reservation %s does not exist", id)
	}
	return r, err
}

// List returns the reservations matching filter, ordered by slot.
func (m *ReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	for _, s := range filter.Statuses {
		if !s.Valid() {
			return nil, newError(ErrInvalidStatus, "status", "unknown reservation status %q", s)
		}
	}
	policy := m.resolver.Policy()
	for _, d := range []string{filter.Date, filter.FromDate} {
		if d == "" {
			continue
		}
		if _, err := policy.parseDate(d); err != nil {
			return nil, err
		}
	}
	return m.store.Reservations().List(ctx, filter)
}

// Update applies a patch. Changing the date, time, party size or table
// re-runs validation and assignment; the current table is kept when it is
// still free for the new slot.
func (m *ReservationService) Update(ctx context.Context, id string, patch models.ReservationPatch) (*models.Reservation, error) {
	current, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}
	if current.Status.Terminal() {
		return nil, newError(ErrConflict, "status", "reservation %s is %s and can no longer change", id, current.Status)
	}
	if patch.Status != nil {
		if err := checkTransition(current.Status, *patch.Status); err != nil {
			return nil, err
		}
	}
	if patch.ContactPhone != nil {
		if err := validatePhone(*patch.ContactPhone); err != nil {
			return nil, err
		}
		phone := strings.TrimSpace(*patch.ContactPhone)
		patch.ContactPhone = &phone
	}
	patch.CustomerName = trimmed(patch.CustomerName)
	patch.SpecialRequests = trimmed(patch.SpecialRequests)

	rebind := m.rebinds(current, patch)
	if rebind && patch.Status != nil && !patch.Status.Active() {
		return nil, newError(ErrInvalidRequest, "status",
			"a reservation cannot be moved and %s in the same update", *patch.Status)
	}

	var updated *models.Reservation
	if !rebind {
		err = m.store.Transaction(ctx, func(tx repository.Store) error {
			if err := m.recheck(ctx, tx, id, patch); err != nil {
				return err
			}
			updated, err = tx.Reservations().Update(ctx, id, patch)
			return err
		})
		return m.finishUpdate(ctx, updated, err, id)
	}

	date, clock, party := current.Date, current.Time, current.PartySize
	if patch.Date != nil {
		date = *patch.Date
	}
	if patch.Time != nil {
		clock = *patch.Time
	}
	if patch.PartySize != nil {
		party = *patch.PartySize
	}
	slot, err := m.resolver.ValidateRequest(date, clock, party)
	if err != nil {
		return nil, err
	}
	patch.Date, patch.Time = &slot.Date, &slot.Time

	err = m.withSlot(ctx, slot, func() error {
		return m.store.Transaction(ctx, func(tx repository.Store) error {
			if err := m.recheck(ctx, tx, id, patch); err != nil {
				return err
			}
			var table *models.Table
			switch {
			case Mode(patch.TableNumber) == AssignManual:
				table, err = m.assigner.Manual(ctx, tx, slot, party, *patch.TableNumber, id)
			case current.TableNumber != nil:
				table, err = m.assigner.Prefer(ctx, tx, slot, party, *current.TableNumber, id)
			default:
				table, err = m.assigner.Automatic(ctx, tx, slot, party, id)
			}
			if err != nil {
				return err
			}
			patch.TableNumber = &table.TableNumber
			updated, err = tx.Reservations().Update(ctx, id, patch)
			if err != nil {
				return m.collision(err, table.TableNumber, slot)
			}
			return nil
		})
	})
	return m.finishUpdate(ctx, updated, err, id)
}

// rebinds reports whether the patch touches anything the table binding
// depends on.
func (m *ReservationService) rebinds(current *models.Reservation, patch models.ReservationPatch) bool {
	return (patch.Date != nil && *patch.Date != current.Date) ||
		(patch.Time != nil && *patch.Time != current.Time) ||
		(patch.PartySize != nil && *patch.PartySize != current.PartySize) ||
		(patch.TableNumber != nil && !current.AssignedTo(*patch.TableNumber))
}

// recheck re-reads the reservation inside tx so a concurrent cancel or
// complete is not overwritten.
func (m *ReservationService) recheck(ctx context.Context, tx repository.Store, id string, patch models.ReservationPatch) error {
	fresh, err := tx.Reservations().Get(ctx, id)
	if err != nil {
		return err
	}
	if fresh.Status.Terminal() {
		return newError(ErrConflict, "status", "reservation %s is %s and can no longer change", id, fresh.Status)
	}
	if patch.Status != nil {
		return checkTransition(fresh.Status, *patch.Status)
	}
	return nil
}

func (m *ReservationService) finishUpdate(ctx context.Context, updated *models.Reservation, err error, id string) (*models.Reservation, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "id", "reservation %s does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation": updated.ID,
		"slot":        updated.Date + " " + updated.Time,
		"status":      updated.Status,
	}).Info("reservation updated")

	eventType := models.EventReservationUpdated
	if updated.Status == models.ReservationCancelled {
		eventType = models.EventReservationCanceled
	}
	m.events.emit(ctx, eventType, updated)
	return updated, nil
}

func (m *ReservationService) Confirm(ctx context.Context, id string) (*models.Reservation, error) {
	return m.transition(ctx, id, models.ReservationConfirmed)
}

func (m *ReservationService) Complete(ctx context.Context, id string) (*models.Reservation, error) {
	return m.transition(ctx, id, models.ReservationCompleted)
}

// Cancel keeps the record as cancelled history. The table status is left
// alone; freeing the table is up to staff.
func (m *ReservationService) Cancel(ctx context.Context, id string) (*models.Reservation, error) {
	return m.transition(ctx, id, models.ReservationCancelled)
}

func (m *ReservationService) transition(ctx context.Context, id string, to models.ReservationStatus) (*models.Reservation, error) {
	var (
		result  *models.Reservation
		changed bool
	)
	err := m.store.Transaction(ctx, func(tx repository.Store) error {
		current, err := tx.Reservations().Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == to {
			result = current
			return nil
		}
		if err := checkTransition(current.Status, to); err != nil {
			return err
		}
		result, err = tx.Reservations().Update(ctx, id, models.ReservationPatch{Status: &to})
		changed = err == nil
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "id", "reservation %s does not exist", id)
	}
	if err != nil || !changed {
		return result, err
	}
	return m.finishUpdate(ctx, result, nil, id)
}

// Delete removes the record for good.
func (m *ReservationService) Delete(ctx context.Context, id string) error {
	err := m.store.Reservations().Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "id", "reservation %s does not exist", id)
	}
	if err != nil {
		return err
	}
	utils.InfoLogger.WithField("reservation", id).Info("reservation deleted")
	m.events.emit(ctx, models.EventReservationDeleted, map[string]string{"id": id})
	return nil
}

// withSlot runs fn while holding the lock of slot. Waiting longer than
// lockWait fails with ErrSlotBusy.
func (m *ReservationService) withSlot(ctx context.Context, slot Slot, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, m.lockWait)
	defer cancel()

	release, err := m.locker.Acquire(lockCtx, slot.Key())
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return newError(ErrSlotBusy, "time", "slot %s is busy, try again", slot)
		}
		return err
	}
	defer release()
	return fn()
}

// collision maps a storage-level uniqueness violation to TableUnavailable.
func (m *ReservationService) collision(err error, tableNumber string, slot Slot) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return newError(ErrTableUnavailable, "table_number", "table %s was just booked for %s", tableNumber, slot)
	}
	return err
}

// checkTransition allows pending to confirmed, and either active status to
// completed or cancelled. Staying in the same status is always allowed.
func checkTransition(from, to models.ReservationStatus) error {
	if !to.Valid() {
		return newError(ErrInvalidStatus, "status", "unknown reservation status %q", to)
	}
	if from == to {
		return nil
	}
	if from.Terminal() {
		return newError(ErrConflict, "status", "reservation is %s and can no longer change", from)
	}
	switch to {
	case models.ReservationConfirmed:
		if from == models.ReservationPending {
			return nil
		}
	case models.ReservationCompleted, models.ReservationCancelled:
		return nil
	}
	return newError(ErrConflict, "status", "cannot move a %s reservation back to %s", from, to)
}

func validatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return newError(ErrInvalidRequest, "contact_phone", "contact phone is required")
	}
	if !ValidPhone(phone) {
		return newError(ErrInvalidRequest, "contact_phone", "contact phone %q is not a valid phone number", phone)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

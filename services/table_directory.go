package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/repository"
	"github.com/yeremiapane/table-reservations/utils"
)

// TableDirectory owns the table inventory and every status change made to it.
type TableDirectory struct {
	store  repository.Store
	policy BookingPolicy
	clock  clockwork.Clock
	events emitter
}

func NewTableDirectory(store repository.Store, policy BookingPolicy, clock clockwork.Clock, publisher EventPublisher) *TableDirectory {
	return &TableDirectory{
		store:  store,
		policy: policy,
		clock:  clock,
		events: emitter{publisher: publisher, clock: clock},
	}
}

func (d *TableDirectory) ListTables(ctx context.Context) ([]models.Table, error) {
	return d.store.Tables().List(ctx)
}

func (d *TableDirectory) ListByStatus(ctx context.Context, status models.TableStatus) ([]models.Table, error) {
	if !status.Valid() {
		return nil, newError(ErrInvalidStatus, "status", "unknown table status %q", status)
	}
	return d.store.Tables().ListByStatus(ctx, status)
}

func (d *TableDirectory) GetTable(ctx context.Context, number string) (*models.Table, error) {
	table, err := d.store.Tables().GetByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "table_number", "table %s does not exist", number)
	}
	return table, err
}

// SetStatus overwrites the status of a table. Setting the status it already
// has changes nothing and emits no event.
func (d *TableDirectory) SetStatus(ctx context.Context, number string, status models.TableStatus, source string) (*models.Table, error) {
	previous, err := d.writeStatus(ctx, d.store, number, status)
	if err != nil {
		return nil, err
	}
	d.announce(ctx, number, previous, status, source)
	return d.GetTable(ctx, number)
}

func (d *TableDirectory) writeStatus(ctx context.Context, store repository.Store, number string, status models.TableStatus) (models.TableStatus, error) {
	if !status.Valid() {
		return "", newError(ErrInvalidStatus, "status", "unknown table status %q", status)
	}
	previous, err := store.Tables().SetStatus(ctx, number, status)
	if errors.Is(err, repository.ErrNotFound) {
		return "", newError(ErrNotFound, "table_number", "table %s does not exist", number)
	}
	return previous, err
}

// announce logs and publishes a committed status change.
func (d *TableDirectory) announce(ctx context.Context, number string, previous, status models.TableStatus, source string) {
	if previous == status {
		return
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"table":  number,
		"from":   previous,
		"to":     status,
		"source": source,
	}).Info("table status changed")
	d.events.emit(ctx, models.EventTableStatusChanged, models.TableStatusChange{
		TableNumber:    number,
		Status:         status,
		PreviousStatus: previous,
		Source:         source,
	})
}

// Seat marks a table occupied by a named party, optionally linked to an order.
// Status and occupant are written in one transaction.
func (d *TableDirectory) Seat(ctx context.Context, number string, customerName, orderRef *string, source string) (*models.Table, error) {
	var previous models.TableStatus
	err := d.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if previous, err = d.writeStatus(ctx, tx, number, models.TableOccupied); err != nil {
			return err
		}
		return tx.Tables().SetOccupant(ctx, number, customerName, orderRef)
	})
	if err != nil {
		return nil, err
	}
	d.announce(ctx, number, previous, models.TableOccupied, source)
	return d.GetTable(ctx, number)
}

// UpsertTable creates a table or updates the attributes of an existing one.
func (d *TableDirectory) UpsertTable(ctx context.Context, table *models.Table) (bool, error) {
	table.TableNumber = strings.TrimSpace(table.TableNumber)
	if table.TableNumber == "" {
		return false, newError(ErrInvalidRequest, "table_number", "table number is required")
	}
	if table.Capacity < 1 {
		return false, newError(ErrInvalidRequest, "capacity", "capacity must be at least 1, got %d", table.Capacity)
	}
	if table.Status != "" && !table.Status.Valid() {
		return false, newError(ErrInvalidStatus, "status", "unknown table status %q", table.Status)
	}

	created, err := d.store.Tables().Upsert(ctx, table)
	if err != nil {
		return false, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"table":    table.TableNumber,
		"capacity": table.Capacity,
		"created":  created,
	}).Info("table saved")
	d.events.emit(ctx, models.EventTableUpserted, table)
	return created, nil
}

// DeleteTable removes a table. It fails with ErrConflict while a pending or
// confirmed reservation for today or later is bound to the table.
func (d *TableDirectory) DeleteTable(ctx context.Context, number string) error {
	today := d.policy.Today(d.clock.Now()).Format(DateLayout)

	err := d.store.Transaction(ctx, func(tx repository.Store) error {
		active, err := tx.Reservations().List(ctx, models.ReservationFilter{
			FromDate:    today,
			Statuses:    models.ActiveReservationStatuses,
			TableNumber: number,
		})
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return newError(ErrConflict, "table_number",
				"table %s still has %d active reservation(s), first on %s %s",
				number, len(active), active[0].Date, active[0].Time)
		}
		return tx.Tables().Delete(ctx, number)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "table_number", "table %s does not exist", number)
	}
	if err != nil {
		return err
	}

	utils.InfoLogger.WithField("table", number).Info("table deleted")
	d.events.emit(ctx, models.EventTableDeleted, map[string]string{"table_number": number})
	return nil
}

// Stats counts tables per status, plus a "total".
func (d *TableDirectory) Stats(ctx context.Context) (map[string]int64, error) {
	counts, err := d.store.Tables().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(counts)+1)
	var total int64
	for status, n := range counts {
		stats[string(status)] = n
		total += n
	}
	stats["total"] = total
	return stats, nil
}

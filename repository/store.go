package repository

import (
	"context"
	"errors"

	"github.com/yeremiapane/table-reservations/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// TableRepository is the storage side of the table directory.
type TableRepository interface {
	List(ctx context.Context) ([]models.Table, error)
	ListByStatus(ctx context.Context, status models.TableStatus) ([]models.Table, error)
	GetByNumber(ctx context.Context, number string) (*models.Table, error)
	// Upsert creates the table or overwrites the attributes of the table with
	// the same number. It reports whether a new row was created.
	Upsert(ctx context.Context, table *models.Table) (bool, error)
	Delete(ctx context.Context, number string) error
	SetStatus(ctx context.Context, number string, status models.TableStatus) (models.TableStatus, error)
	SetOccupant(ctx context.Context, number string, customerName, orderRef *string) error
	// CompareAndSetStatus moves the table to status unless its current status
	// is one of unless. It reports whether a row was changed.
	CompareAndSetStatus(ctx context.Context, number string, status models.TableStatus, unless ...models.TableStatus) (bool, error)
	CountByStatus(ctx context.Context) (map[models.TableStatus]int64, error)
}

// ReservationRepository is the reservation store. It performs no conflict
// checking of its own.
type ReservationRepository interface {
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	Get(ctx context.Context, id string) (*models.Reservation, error)
	Create(ctx context.Context, reservation *models.Reservation) error
	Update(ctx context.Context, id string, patch models.ReservationPatch) (*models.Reservation, error)
	Delete(ctx context.Context, id string) error
}

type Store interface {
	Tables() TableRepository
	Reservations() ReservationRepository
	// Transaction runs fn against a store bound to one database transaction.
	Transaction(ctx context.Context, fn func(Store) error) error
}

var (
	_ Store                 = (*GormStore)(nil)
	_ TableRepository       = (*gormTableRepository)(nil)
	_ ReservationRepository = (*gormReservationRepository)(nil)
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Tables() TableRepository {
	return &gormTableRepository{db: s.db}
}

func (s *GormStore) Reservations() ReservationRepository {
	return &gormReservationRepository{db: s.db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

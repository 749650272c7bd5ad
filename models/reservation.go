package models

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// ActiveReservationStatuses are the statuses that hold a table for their slot.
var ActiveReservationStatuses = []ReservationStatus{ReservationPending, ReservationConfirmed}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

func (s ReservationStatus) Terminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled
}

// Reservation binds a party to a one-hour slot. TableNumber is a lookup key
// into the table directory, never a foreign key: tables and reservations are
// persisted independently.
type Reservation struct {
	ID              string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Date            string            `gorm:"column:reservation_date;type:varchar(10);not null;index:idx_reservation_slot" json:"date"`
	Time            string            `gorm:"column:reservation_time;type:varchar(5);not null;index:idx_reservation_slot" json:"time"`
	PartySize       int               `gorm:"not null" json:"party_size"`
	TableNumber     *string           `gorm:"type:varchar(50);index" json:"table_number"`
	CustomerName    *string           `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	ContactPhone    string            `gorm:"type:varchar(30);not null" json:"contact_phone"`
	SpecialRequests *string           `gorm:"type:text" json:"special_requests,omitempty"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updated_at"`
}

// AssignedTo reports whether the reservation is bound to the given table.
func (r *Reservation) AssignedTo(tableNumber string) bool {
	return r.TableNumber != nil && *r.TableNumber == tableNumber
}

// ReservationPatch carries the fields of an update; nil means unchanged.
type ReservationPatch struct {
	Date            *string
	Time            *string
	PartySize       *int
	TableNumber     *string
	CustomerName    *string
	ContactPhone    *string
	SpecialRequests *string
	Status          *ReservationStatus
}

func (p ReservationPatch) Empty() bool {
	return p.Date == nil && p.Time == nil && p.PartySize == nil && p.TableNumber == nil &&
		p.CustomerName == nil && p.ContactPhone == nil && p.SpecialRequests == nil && p.Status == nil
}

// ReservationFilter narrows a reservation listing. Zero values match everything.
type ReservationFilter struct {
	Date        string
	FromDate    string
	Time        string
	Statuses    []ReservationStatus
	TableNumber string
	ExcludeID   string
}

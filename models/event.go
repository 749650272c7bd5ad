package models

import "time"

const (
	EventTableStatusChanged  = "table.status.changed"
	EventTableUpserted       = "table.upserted"
	EventTableDeleted        = "table.deleted"
	EventReservationCreated  = "reservation.created"
	EventReservationUpdated  = "reservation.updated"
	EventReservationCanceled = "reservation.cancelled"
	EventReservationDeleted  = "reservation.deleted"
)

type Event struct {
	Type       string      `json:"event"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// TableStatusChange is the payload of EventTableStatusChanged.
type TableStatusChange struct {
	TableNumber    string      `json:"table_number"`
	Status         TableStatus `json:"status"`
	PreviousStatus TableStatus `json:"previous_status,omitempty"`
	Source         string      `json:"source"`
}

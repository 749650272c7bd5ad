package models

import "time"

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
	TableCleaning  TableStatus = "cleaning"
)

// TableStatuses lists every status in display order.
var TableStatuses = []TableStatus{TableAvailable, TableOccupied, TableReserved, TableCleaning}

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableCleaning:
		return true
	}
	return false
}

// Table is one physical table of the dining room. TableNumber is the identity
// used everywhere outside the database ("T5"); ID only exists for gorm.
type Table struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	TableNumber  string      `gorm:"type:varchar(50);not null;uniqueIndex" json:"table_number"`
	Capacity     int         `gorm:"not null" json:"capacity"`
	Location     string      `gorm:"type:varchar(100)" json:"location"`
	Type         string      `gorm:"type:varchar(50)" json:"type"`
	Status       TableStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	CustomerName *string     `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	OrderRef     *string     `gorm:"type:varchar(100)" json:"order_ref,omitempty"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
}

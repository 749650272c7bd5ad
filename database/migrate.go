package database

import (
	"fmt"

	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/utils"
	"gorm.io/gorm"
)

// activeSlotIndex rejects a second pending or confirmed reservation for the
// same table and slot. Partial indexes are not available on MySQL, where the
// slot lock is the only guard.
const activeSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_reservation_active_slot
	ON reservations (reservation_date, reservation_time, table_number)
	WHERE status IN ('pending', 'confirmed')`

// Migrate creates or updates the schema of the engine.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Table{}, &models.Reservation{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	switch db.Dialector.Name() {
	case "sqlite", "postgres":
		if err := db.Exec(activeSlotIndex).Error; err != nil {
			return fmt.Errorf("create active slot index: %w", err)
		}
		utils.InfoLogger.Printf("Index verified: idx_reservation_active_slot on %s", db.Dialector.Name())
	default:
		utils.InfoLogger.Printf("Skipping partial slot index on %s", db.Dialector.Name())
	}
	return nil
}

// SeedTables inserts the given tables when the directory is still empty.
func SeedTables(db *gorm.DB, tables []models.Table) (int, error) {
	var count int64
	if err := db.Model(&models.Table{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 || len(tables) == 0 {
		return 0, nil
	}
	if err := db.Create(&tables).Error; err != nil {
		return 0, fmt.Errorf("seed tables: %w", err)
	}
	utils.InfoLogger.Printf("Seeded %d tables", len(tables))
	return len(tables), nil
}

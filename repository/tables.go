package repository

import (
	"context"
	"fmt"

	"github.com/yeremiapane/table-reservations/models"
	"gorm.io/gorm"
)

type gormTableRepository struct {
	db *gorm.DB
}

func (r *gormTableRepository) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := r.db.WithContext(ctx).Order("table_number").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (r *gormTableRepository) ListByStatus(ctx context.Context, status models.TableStatus) ([]models.Table, error) {
	var tables []models.Table
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("table_number").
		Find(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("list tables by status: %w", err)
	}
	return tables, nil
}

func (r *gormTableRepository) GetByNumber(ctx context.Context, number string) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).Where("table_number = ?", number).First(&table).Error; err != nil {
		return nil, translate(err)
	}
	return &table, nil
}

func (r *gormTableRepository) Upsert(ctx context.Context, table *models.Table) (bool, error) {
	var existing models.Table
	err := r.db.WithContext(ctx).Where("table_number = ?", table.TableNumber).First(&existing).Error
	switch translate(err) {
	case nil:
	case ErrNotFound:
		if table.Status == "" {
			table.Status = models.TableAvailable
		}
		if err := r.db.WithContext(ctx).Create(table).Error; err != nil {
			return false, fmt.Errorf("create table %s: %w", table.TableNumber, translate(err))
		}
		return true, nil
	default:
		return false, fmt.Errorf("get table %s: %w", table.TableNumber, err)
	}

	existing.Capacity = table.Capacity
	existing.Location = table.Location
	existing.Type = table.Type
	if table.Status != "" {
		existing.Status = table.Status
	}
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return false, fmt.Errorf("update table %s: %w", table.TableNumber, err)
	}
	*table = existing
	return false, nil
}

func (r *gormTableRepository) Delete(ctx context.Context, number string) error {
	res := r.db.WithContext(ctx).Where("table_number = ?", number).Delete(&models.Table{})
	if res.Error != nil {
		return fmt.Errorf("delete table %s: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTableRepository) SetStatus(ctx context.Context, number string, status models.TableStatus) (models.TableStatus, error) {
	var previous models.TableStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.Where("table_number = ?", number).First(&table).Error; err != nil {
			return translate(err)
		}
		previous = table.Status

		updates := map[string]interface{}{"status": status}
		if status == models.TableAvailable {
			// a free table has nobody seated at it
			updates["customer_name"] = nil
			updates["order_ref"] = nil
		}
		return tx.Model(&models.Table{}).Where("id = ?", table.ID).Updates(updates).Error
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

func (r *gormTableRepository) SetOccupant(ctx context.Context, number string, customerName, orderRef *string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Table{}).
		Where("table_number = ?", number).
		Updates(map[string]interface{}{"customer_name": customerName, "order_ref": orderRef})
	if res.Error != nil {
		return fmt.Errorf("set occupant of %s: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTableRepository) CompareAndSetStatus(ctx context.Context, number string, status models.TableStatus, unless ...models.TableStatus) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Table{}).Where("table_number = ?", number)
	if len(unless) > 0 {
		q = q.Where("status NOT IN ?", unless)
	}
	res := q.Update("status", status)
	if res.Error != nil {
		return false, fmt.Errorf("compare and set status of %s: %w", number, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormTableRepository) CountByStatus(ctx context.Context) (map[models.TableStatus]int64, error) {
	var rows []struct {
		Status models.TableStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Table{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}

	counts := make(map[models.TableStatus]int64, len(models.TableStatuses))
	for _, s := range models.TableStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

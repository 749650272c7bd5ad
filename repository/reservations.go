package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yeremiapane/table-reservations/models"
	"gorm.io/gorm"
)

type gormReservationRepository struct {
	db *gorm.DB
}

func (r *gormReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	q := r.db.WithContext(ctx).Model(&models.Reservation{})
	if filter.Date != "" {
		q = q.Where("reservation_date = ?", filter.Date)
	}
	if filter.FromDate != "" {
		q = q.Where("reservation_date >= ?", filter.FromDate)
	}
	if filter.Time != "" {
		q = q.Where("reservation_time = ?", filter.Time)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.TableNumber != "" {
		q = q.Where("table_number = ?", filter.TableNumber)
	}
	if filter.ExcludeID != "" {
		q = q.Where("id <> ?", filter.ExcludeID)
	}

	var reservations []models.Reservation
	if err := q.Order("reservation_date, reservation_time, created_at").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

func (r *gormReservationRepository) Get(ctx context.Context, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error; err != nil {
		return nil, translate(err)
	}
	return &reservation, nil
}

func (r *gormReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	reservation.Status = models.ReservationPending
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return fmt.Errorf("create reservation: %w", translate(err))
	}
	return nil
}

func (r *gormReservationRepository) Update(ctx context.Context, id string, patch models.ReservationPatch) (*models.Reservation, error) {
	if patch.Empty() {
		return r.Get(ctx, id)
	}

	updates := map[string]interface{}{}
	if patch.Date != nil {
		updates["reservation_date"] = *patch.Date
	}
	if patch.Time != nil {
		updates["reservation_time"] = *patch.Time
	}
	if patch.PartySize != nil {
		updates["party_size"] = *patch.PartySize
	}
	if patch.TableNumber != nil {
		updates["table_number"] = *patch.TableNumber
	}
	if patch.CustomerName != nil {
		updates["customer_name"] = *patch.CustomerName
	}
	if patch.ContactPhone != nil {
		updates["contact_phone"] = *patch.ContactPhone
	}
	if patch.SpecialRequests != nil {
		updates["special_requests"] = *patch.SpecialRequests
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	res := r.db.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update reservation %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *gormReservationRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Reservation{})
	if res.Error != nil {
		return fmt.Errorf("delete reservation %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

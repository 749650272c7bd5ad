package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/services"
	"github.com/yeremiapane/table-reservations/utils"
)

type ReservationController struct {
	Reservations *services.ReservationService
}

func NewReservationController(reservations *services.ReservationService) *ReservationController {
	return &ReservationController{Reservations: reservations}
}

type createReservationRequest struct {
	Date            string  `json:"date" binding:"required,datetime=2006-01-02"`
	Time            string  `json:"time" binding:"required,clockhour"`
	PartySize       int     `json:"party_size" binding:"required"`
	ContactPhone    string  `json:"contact_phone" binding:"required,phone"`
	CustomerName    *string `json:"customer_name" binding:"omitempty,max=255"`
	SpecialRequests *string `json:"special_requests" binding:"omitempty,max=1000"`
	TableNumber     *string `json:"table_number" binding:"omitempty,max=50"`
}

type updateReservationRequest struct {
	Date            *string                   `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time            *string                   `json:"time" binding:"omitempty,clockhour"`
	PartySize       *int                      `json:"party_size"`
	TableNumber     *string                   `json:"table_number" binding:"omitempty,max=50"`
	CustomerName    *string                   `json:"customer_name" binding:"omitempty,max=255"`
	ContactPhone    *string                   `json:"contact_phone" binding:"omitempty,phone"`
	SpecialRequests *string                   `json:"special_requests" binding:"omitempty,max=1000"`
	Status          *models.ReservationStatus `json:"status"`
}

// CreateReservation -> POST /reservations
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	reservation, err := rc.Reservations.Create(c.Request.Context(), services.CreateReservationInput{
		Date:            req.Date,
		Time:            req.Time,
		PartySize:       req.PartySize,
		ContactPhone:    req.ContactPhone,
		CustomerName:    req.CustomerName,
		SpecialRequests: req.SpecialRequests,
		TableNumber:     req.TableNumber,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", reservation)
}

// GetReservations -> GET /reservations?date&from&status&table_number
func (rc *ReservationController) GetReservations(c *gin.Context) {
	filter := models.ReservationFilter{
		Date:        c.Query("date"),
		FromDate:    c.Query("from"),
		TableNumber: c.Query("table_number"),
	}
	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, models.ReservationStatus(s))
			}
		}
	}

	reservations, err := rc.Reservations.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// GetReservationByID -> GET /reservations/:id
func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	reservation, err := rc.Reservations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

// UpdateReservation -> PUT /reservations/:id
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	var req updateReservationRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	reservation, err := rc.Reservations.Update(c.Request.Context(), c.Param("id"), models.ReservationPatch{
		Date:            req.Date,
		Time:            req.Time,
		PartySize:       req.PartySize,
		TableNumber:     req.TableNumber,
		CustomerName:    req.CustomerName,
		ContactPhone:    req.ContactPhone,
		SpecialRequests: req.SpecialRequests,
		Status:          req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", reservation)
}

func (rc *ReservationController) ConfirmReservation(c *gin.Context) {
	reservation, err := rc.Reservations.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation confirmed", reservation)
}

func (rc *ReservationController) CompleteReservation(c *gin.Context) {
	reservation, err := rc.Reservations.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation completed", reservation)
}

func (rc *ReservationController) CancelReservation(c *gin.Context) {
	reservation, err := rc.Reservations.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", reservation)
}

// DeleteReservation -> DELETE /reservations/:id
// Cancels and keeps the record; ?hard=true removes it and needs the admin role.
func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id := c.Param("id")

	if c.Query("hard") != "true" {
		rc.CancelReservation(c)
		return
	}
	if c.GetString("role") != "admin" {
		utils.RespondJSON(c, http.StatusForbidden, "Only admin can remove reservations", nil)
		return
	}
	if err := rc.Reservations.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation deleted", gin.H{"id": id})
}

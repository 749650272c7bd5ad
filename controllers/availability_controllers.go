package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservations/services"
	"github.com/yeremiapane/table-reservations/utils"
)

type AvailabilityController struct {
	Resolver *services.AvailabilityResolver
}

func NewAvailabilityController(resolver *services.AvailabilityResolver) *AvailabilityController {
	return &AvailabilityController{Resolver: resolver}
}

// partySizeQuery reads party_size (or partySize). A missing or malformed
// value becomes 0 and is rejected by the resolver.
func partySizeQuery(c *gin.Context) int {
	raw := c.Query("party_size")
	if raw == "" {
		raw = c.Query("partySize")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// GetAvailability -> GET /availability?date&time&party_size
func (ac *AvailabilityController) GetAvailability(c *gin.Context) {
	date, clock, party := c.Query("date"), c.Query("time"), partySizeQuery(c)

	tables, err := ac.Resolver.FindAvailableTables(c.Request.Context(), date, clock, party)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available tables", gin.H{
		"date":       date,
		"time":       clock,
		"party_size": party,
		"tables":     tables,
	})
}

// GetAvailableSlots -> GET /availability/slots?date&party_size
func (ac *AvailabilityController) GetAvailableSlots(c *gin.Context) {
	slots, err := ac.Resolver.AvailableSlots(c.Request.Context(), c.Query("date"), partySizeQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available slots", slots)
}

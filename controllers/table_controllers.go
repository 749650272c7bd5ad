package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/services"
	"github.com/yeremiapane/table-reservations/utils"
)

type TableController struct {
	Tables *services.TableDirectory
}

func NewTableController(tables *services.TableDirectory) *TableController {
	return &TableController{Tables: tables}
}

type tableRequest struct {
	TableNumber string             `json:"table_number" binding:"required,max=50"`
	Capacity    int                `json:"capacity" binding:"required,min=1"`
	Location    string             `json:"location" binding:"max=100"`
	Type        string             `json:"type" binding:"max=50"`
	Status      models.TableStatus `json:"status"` // optional, default "available"
}

// source names who changed a table, e.g. "staff:12".
func source(c *gin.Context) string {
	role := c.GetString("role")
	if role == "" {
		role = "api"
	}
	if id, ok := c.Get("user_id"); ok {
		if uid, ok := id.(uint); ok && uid != 0 {
			return role + ":" + strconv.FormatUint(uint64(uid), 10)
		}
	}
	return role
}

// CreateTable -> POST /tables
func (tc *TableController) CreateTable(c *gin.Context) {
	var req tableRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	table := models.Table{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Location:    req.Location,
		Type:        req.Type,
		Status:      req.Status,
	}
	created, err := tc.Tables.UpsertTable(c.Request.Context(), &table)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !created {
		utils.RespondJSON(c, http.StatusOK, "Table updated", table)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// UpdateTable -> PUT /tables/:number
func (tc *TableController) UpdateTable(c *gin.Context) {
	var req tableRequest
	req.TableNumber = c.Param("number")
	if err := bindJSON(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}
	if _, err := tc.Tables.GetTable(c.Request.Context(), c.Param("number")); err != nil {
		respondServiceError(c, err)
		return
	}

	table := models.Table{
		TableNumber: c.Param("number"),
		Capacity:    req.Capacity,
		Location:    req.Location,
		Type:        req.Type,
		Status:      req.Status,
	}
	if _, err := tc.Tables.UpsertTable(c.Request.Context(), &table); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// GetAllTables -> GET /tables[?status=]
func (tc *TableController) GetAllTables(c *gin.Context) {
	var (
		tables []models.Table
		err    error
	)
	if status := c.Query("status"); status != "" {
		tables, err = tc.Tables.ListByStatus(c.Request.Context(), models.TableStatus(status))
	} else {
		tables, err = tc.Tables.ListTables(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByNumber -> GET /tables/:number
func (tc *TableController) GetTableByNumber(c *gin.Context) {
	table, err := tc.Tables.GetTable(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTableStatus -> PATCH /tables/:number/status
// Seating a party (status "occupied") may carry the guest name and order.
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	var body struct {
		Status       models.TableStatus `json:"status" binding:"required"`
		CustomerName *string            `json:"customer_name" binding:"omitempty,max=255"`
		OrderRef     *string            `json:"order_ref" binding:"omitempty,max=100"`
	}
	if err := bindJSON(c, &body); err != nil {
		respondBindingError(c, err)
		return
	}

	var (
		table *models.Table
		err   error
	)
	number := c.Param("number")
	if body.Status == models.TableOccupied && (body.CustomerName != nil || body.OrderRef != nil) {
		table, err = tc.Tables.Seat(c.Request.Context(), number, body.CustomerName, body.OrderRef, source(c))
	} else {
		table, err = tc.Tables.SetStatus(c.Request.Context(), number, body.Status, source(c))
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// DeleteTable -> DELETE /tables/:number
func (tc *TableController) DeleteTable(c *gin.Context) {
	number := c.Param("number")
	if err := tc.Tables.DeleteTable(c.Request.Context(), number); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"table_number": number})
}

// GetTableStats -> GET /tables/stats
func (tc *TableController) GetTableStats(c *gin.Context) {
	stats, err := tc.Tables.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table statistics", stats)
}

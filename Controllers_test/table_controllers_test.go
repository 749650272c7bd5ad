package Controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/table-reservations/controllers"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/services"
)

func setupTableRouter(engine *services.Engine, role string) *gin.Engine {
	router := gin.New()
	tableCtrl := controllers.NewTableController(engine.Tables)
	router.Use(withRole(role))
	router.POST("/tables", tableCtrl.CreateTable)
	router.GET("/tables", tableCtrl.GetAllTables)
	router.GET("/tables/stats", tableCtrl.GetTableStats)
	router.GET("/tables/:number", tableCtrl.GetTableByNumber)
	router.PUT("/tables/:number", tableCtrl.UpdateTable)
	router.PATCH("/tables/:number/status", tableCtrl.UpdateTableStatus)
	router.DELETE("/tables/:number", tableCtrl.DeleteTable)
	return router
}

func TestCreateAndGetTable(t *testing.T) {
	engine, _ := setupEngine(t)
	router := setupTableRouter(engine, "admin")

	w, resp := doJSON(t, router, http.MethodPost, "/tables", map[string]interface{}{
		"table_number": "T1",
		"capacity":     4,
		"location":     "terrace",
		"type":         "round",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Table created successfully", resp.Message)

	var table models.Table
	decode(t, resp.Data, &table)
	assert.Equal(t, "T1", table.TableNumber)
	assert.Equal(t, models.TableAvailable, table.Status)

	w, resp = doJSON(t, router, http.MethodGet, "/tables/T1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	decode(t, resp.Data, &table)
	assert.Equal(t, 4, table.Capacity)
	assert.Equal(t, "terrace", table.Location)

	w, _ = doJSON(t, router, http.MethodGet, "/tables/T404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTableValidation(t *testing.T) {
	engine, _ := setupEngine(t)
	router := setupTableRouter(engine, "admin")

	w, resp := doJSON(t, router, http.MethodPost, "/tables", map[string]interface{}{"table_number": "T1", "capacity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Status)

	var detail map[string]string
	decode(t, resp.Data, &detail)
	assert.Equal(t, "capacity", detail["field"])
}

func TestUpdateTableStatus(t *testing.T) {
	engine, _ := setupEngine(t)
	router := setupTableRouter(engine, "staff")
	doJSON(t, router, http.MethodPost, "/tables", map[string]interface{}{"table_number": "T1", "capacity": 4})

	w, resp := doJSON(t, router, http.MethodPatch, "/tables/T1/status", map[string]interface{}{
		"status":        "occupied",
		"customer_name": "Walk-in",
		"order_ref":     "ORD-1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var table models.Table
	decode(t, resp.Data, &table)
	assert.Equal(t, models.TableOccupied, table.Status)
	assert.Equal(t, "Walk-in", *table.CustomerName)

	w, resp = doJSON(t, router, http.MethodPatch, "/tables/T1/status", map[string]interface{}{"status": "available"})
	assert.Equal(t, http.StatusOK, w.Code)
	table = models.Table{}
	decode(t, resp.Data, &table)
	assert.Equal(t, models.TableAvailable, table.Status)
	assert.Nil(t, table.CustomerName)

	w, resp = doJSON(t, router, http.MethodPatch, "/tables/T1/status", map[string]interface{}{"status": "dirty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var detail map[string]string
	decode(t, resp.Data, &detail)
	assert.Equal(t, "InvalidStatus", detail["kind"])

	w, _ = doJSON(t, router, http.MethodPatch, "/tables/T9/status", map[string]interface{}{"status": "cleaning"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTablesAndStats(t *testing.T) {
	engine, _ := setupEngine(t)
	router := setupTableRouter(engine, "admin")
	for _, n := range []string{"T2", "T1", "T3"} {
		doJSON(t, router, http.MethodPost, "/tables", map[string]interface{}{"table_number": n, "capacity": 2})
	}
	doJSON(t, router, http.MethodPatch, "/tables/T3/status", map[string]interface{}{"status": "cleaning"})

	w, resp := doJSON(t, router, http.MethodGet, "/tables", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var tables []models.Table
	decode(t, resp.Data, &tables)
	assert.Len(t, tables, 3)
	assert.Equal(t, "T1", tables[0].TableNumber)

	_, resp = doJSON(t, router, http.MethodGet, "/tables?status=cleaning", nil)
	tables = nil
	decode(t, resp.Data, &tables)
	assert.Len(t, tables, 1)

	_, resp = doJSON(t, router, http.MethodGet, "/tables/stats", nil)
	var stats map[string]int64
	decode(t, resp.Data, &stats)
	assert.Equal(t, int64(3), stats["total"])
	assert.Equal(t, int64(1), stats["cleaning"])
}

func TestDeleteTableConflict(t *testing.T) {
	engine, _ := setupEngine(t)
	router := setupTableRouter(engine, "admin")
	doJSON(t, router, http.MethodPost, "/tables", map[string]interface{}{"table_number": "T1", "capacity": 4})

	number := "T1"
	_, err := engine.Reservations.Create(context.Background(), services.CreateReservationInput{
		Date: "2024-06-11", Time: "19:00", PartySize: 2, ContactPhone: "0812345678", TableNumber: &number,
	})
	assert.NoError(t, err)

	w, resp := doJSON(t, router, http.MethodDelete, "/tables/T1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var detail map[string]string
	decode(t, resp.Data, &detail)
	assert.Equal(t, "Conflict", detail["kind"])
}

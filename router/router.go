package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservations/config"
	"github.com/yeremiapane/table-reservations/controllers"
	"github.com/yeremiapane/table-reservations/kds"
	"github.com/yeremiapane/table-reservations/middlewares"
	"github.com/yeremiapane/table-reservations/services"
	"github.com/yeremiapane/table-reservations/utils"
)

func SetupRouter(engine *services.Engine, hub *kds.Hub, cfg *config.Config) *gin.Engine {
	controllers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))

	availabilityCtrl := controllers.NewAvailabilityController(engine.Availability)
	reservationCtrl := controllers.NewReservationController(engine.Reservations)
	tableCtrl := controllers.NewTableController(engine.Tables)
	schedulerCtrl := controllers.NewSchedulerController(engine.Scheduler)
	kdsCtrl := controllers.NewKDSController(hub, cfg.CORSOrigin)

	bookingLimiter := middlewares.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Interval)

	r.GET("/ping", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "pong", nil)
	})

	// Guests
	r.GET("/availability", availabilityCtrl.GetAvailability)
	r.GET("/availability/slots", availabilityCtrl.GetAvailableSlots)
	r.POST("/reservations", bookingLimiter.RateLimit(), reservationCtrl.CreateReservation)
	r.GET("/reservations/:id", reservationCtrl.GetReservationByID)
	r.GET("/tables", tableCtrl.GetAllTables)

	// Floor staff
	staff := r.Group("/")
	staff.Use(middlewares.AuthMiddleware(), middlewares.RequireRoles("staff"))
	{
		staff.GET("/reservations", reservationCtrl.GetReservations)
		staff.PUT("/reservations/:id", reservationCtrl.UpdateReservation)
		staff.DELETE("/reservations/:id", reservationCtrl.DeleteReservation)
		staff.POST("/reservations/:id/confirm", reservationCtrl.ConfirmReservation)
		staff.POST("/reservations/:id/complete", reservationCtrl.CompleteReservation)
		staff.POST("/reservations/:id/cancel", reservationCtrl.CancelReservation)

		staff.GET("/tables/stats", tableCtrl.GetTableStats)
		staff.PATCH("/tables/:number/status", tableCtrl.UpdateTableStatus)

		staff.POST("/scheduler/tick", schedulerCtrl.RunTick)
		staff.GET("/ws", kdsCtrl.KDSHandler)
	}

	// Table administration
	admin := r.Group("/")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireRoles("admin"))
	{
		admin.POST("/tables", tableCtrl.CreateTable)
		admin.PUT("/tables/:number", tableCtrl.UpdateTable)
		admin.DELETE("/tables/:number", tableCtrl.DeleteTable)
	}

	r.GET("/tables/:number", tableCtrl.GetTableByNumber)

	return r
}

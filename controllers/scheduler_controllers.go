package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservations/services"
	"github.com/yeremiapane/table-reservations/utils"
)

type SchedulerController struct {
	Scheduler *services.StatusScheduler
}

func NewSchedulerController(scheduler *services.StatusScheduler) *SchedulerController {
	return &SchedulerController{Scheduler: scheduler}
}

// RunTick -> POST /scheduler/tick runs one status pass right away.
func (sc *SchedulerController) RunTick(c *gin.Context) {
	result, err := sc.Scheduler.RunPass(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Status pass finished", result)
}

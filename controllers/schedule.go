// controllers/schedule.go
package controllers

import (
	"net/http"

	"stayhub-backend/services"
	"stayhub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleController exposes template schedule CRUD and execution.
type ScheduleController struct {
	Schedules *services.ScheduleService
	Logger    *zap.Logger
}

func (sc *ScheduleController) ListSchedules(c *gin.Context) {
	active, ok := boolQuery(c, "active")
	if !ok {
		return
	}

	var templateID *uuid.UUID
	if raw := c.Query("templateId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid templateId parameter")
			return
		}
		templateID = &id
	}

	schedules, err := sc.Schedules.List(c.Request.Context(), active, templateID)
	if err != nil {
		respondError(c, err, "Failed to retrieve schedules")
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (sc *ScheduleController) GetSchedule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	schedule, err := sc.Schedules.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve schedule")
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (sc *ScheduleController) CreateSchedule(c *gin.Context) {
	var input services.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	schedule, err := sc.Schedules.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to create schedule")
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (sc *ScheduleController) UpdateSchedule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input services.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	schedule, err := sc.Schedules.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err, "Failed to update schedule")
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (sc *ScheduleController) DeleteSchedule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := sc.Schedules.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Schedule deleted"})
}

// RunSchedule executes the schedule now and waits for the outcome.
func (sc *ScheduleController) RunSchedule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := sc.Schedules.RunNow(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to run schedule")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (sc *ScheduleController) PreviewTargets(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	preview, err := sc.Schedules.Preview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to preview targets")
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (sc *ScheduleController) SyncSchedules(c *gin.Context) {
	n, err := sc.Schedules.Resync(c.Request.Context())
	if err != nil {
		sc.Logger.Error("schedule resync failed", zap.Error(err))
		respondError(c, err, "Failed to sync schedules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "registered": n})
}

// controllers/scheduler.go
package controllers

import (
	"net/http"

	"stayhub-backend/services"

	"github.com/gin-gonic/gin"
)

// SchedulerController inspects and controls registered scheduler jobs.
type SchedulerController struct {
	Core *services.SchedulerCore
}

func (sc *SchedulerController) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, sc.Core.List())
}

func (sc *SchedulerController) GetJob(c *gin.Context) {
	job, err := sc.Core.Get(c.Param("key"))
	if err != nil {
		respondError(c, err, "Failed to retrieve job")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (sc *SchedulerController) PauseJob(c *gin.Context) {
	if err := sc.Core.Pause(c.Param("key")); err != nil {
		respondError(c, err, "Failed to pause job")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Job paused"})
}

func (sc *SchedulerController) ResumeJob(c *gin.Context) {
	if err := sc.Core.Resume(c.Param("key")); err != nil {
		respondError(c, err, "Failed to resume job")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Job resumed"})
}

// RunJob fires the job in the background and returns immediately.
func (sc *SchedulerController) RunJob(c *gin.Context) {
	if err := sc.Core.RunNow(c.Param("key")); err != nil {
		respondError(c, err, "Failed to run job")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "Job triggered"})
}

func (sc *SchedulerController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running": sc.Core.Running(),
		"jobs":    len(sc.Core.List()),
	})
}

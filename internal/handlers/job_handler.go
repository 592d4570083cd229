package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-lending/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Get statistics about background jobs (active, completed, failed, queue length, last sweep runs)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	status := h.jobService.GetStatus()
	c.JSON(http.StatusOK, status)
}

// TriggerSweeps queues the loan and credit status sweeps
// @Summary Run status sweeps now
// @Description Queue the loan delinquency sweep and the credit maturity sweep without waiting for the schedule
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]string
// @Router /jobs/sweeps [post]
func (h *JobHandler) TriggerSweeps(c *gin.Context) {
	h.jobService.TriggerSweeps()
	c.JSON(http.StatusAccepted, gin.H{"message": "Barridos de estado en cola"})
}

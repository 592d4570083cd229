package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/services"
)

// auditEntities maps the path segment onto the entity name stored in the log
var auditEntities = map[string]string{
	"loans":     "Loan",
	"credits":   "Credit",
	"bad_debts": "BadDebt",
}

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary Audit History
// @Description Change history of one loan, credit or bad debt, newest first
// @Tags Audits
// @Produce json
// @Param entity path string true "loans, credits or bad_debts"
// @Param entity_id path int true "Record ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /audits/{entity}/{entity_id} [get]
func (h *AuditHandler) History(c *gin.Context) {
	entity, ok := auditEntities[c.Param("entity")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entidad desconocida"})
		return
	}
	id, ok := pathID(c, "entity_id")
	if !ok {
		return
	}

	entries, err := h.auditService.History(c.Request.Context(), entity, id)
	if err != nil {
		respondError(c, err, "")
		return
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"audits": entries})
}

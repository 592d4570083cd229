package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-lending/internal/middleware"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/services"
)

const badDebtNotFound = "Incobrable no encontrado"

type BadDebtHandler struct {
	badDebtService *services.BadDebtService
}

func NewBadDebtHandler(badDebtService *services.BadDebtService) *BadDebtHandler {
	return &BadDebtHandler{badDebtService: badDebtService}
}

// @Summary List Bad Debts
// @Description Get a paginated list of written-off loans
// @Tags Bad Debts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param recovered query bool false "Filter by full recovery"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bad_debts [get]
func (h *BadDebtHandler) Index(c *gin.Context) {
	query := listQuery(c, "recovered")

	debts, total, err := h.badDebtService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, badDebtNotFound)
		return
	}

	responses := make([]models.BadDebtResponse, 0, len(debts))
	for i := range debts {
		responses = append(responses, debts[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"bad_debts":  responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Bad Debt
// @Description Get a bad debt with its recoveries
// @Tags Bad Debts
// @Produce json
// @Param bad_debt_id path int true "Bad debt ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /bad_debts/{bad_debt_id} [get]
func (h *BadDebtHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "bad_debt_id")
	if !ok {
		return
	}

	debt, err := h.badDebtService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, badDebtNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bad_debt": debt.ToResponse()})
}

// @Summary Record Recovery
// @Description Record money recovered on a written-off loan
// @Tags Bad Debts
// @Accept json
// @Produce json
// @Param bad_debt_id path int true "Bad debt ID"
// @Param recovery body services.RecoveryInput true "Recovery"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /bad_debts/{bad_debt_id}/recoveries [post]
func (h *BadDebtHandler) RecordRecovery(c *gin.Context) {
	id, ok := pathID(c, "bad_debt_id")
	if !ok {
		return
	}

	var input services.RecoveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de la recuperación inválidos"})
		return
	}

	debt, err := h.badDebtService.RecordRecovery(c.Request.Context(), id, input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, badDebtNotFound)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"bad_debt": debt.ToResponse(),
		"message":  "Recuperación registrada exitosamente",
	})
}

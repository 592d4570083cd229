package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-lending/internal/middleware"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/services"
)

const creditNotFound = "Crédito no encontrado"

type CreditHandler struct {
	creditService *services.CreditService
}

func NewCreditHandler(creditService *services.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// @Summary List Credits
// @Description Get a paginated list of credits placed with the fund
// @Tags Credits
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by creditor or reference"
// @Param status query string false "Filter by status"
// @Param start_date query string false "Started on or after (YYYY-MM-DD)"
// @Param end_date query string false "Started on or before (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /credits [get]
func (h *CreditHandler) Index(c *gin.Context) {
	query := listQuery(c, "status", "start_date", "end_date")

	credits, total, err := h.creditService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, creditNotFound)
		return
	}

	today := time.Now()
	responses := make([]models.CreditResponse, 0, len(credits))
	for i := range credits {
		responses = append(responses, credits[i].ToResponse(today))
	}

	c.JSON(http.StatusOK, gin.H{
		"credits":    responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Create Credit
// @Description Record a new placement. The body may be flat or nested under "credit".
// @Tags Credits
// @Accept json
// @Produce json
// @Param credit body services.CreateCreditInput true "Credit"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /credits [post]
func (h *CreditHandler) Create(c *gin.Context) {
	var input services.CreateCreditInput
	if err := BindNestedOrFlat(c, "credit", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos del crédito inválidos"})
		return
	}

	credit, err := h.creditService.Create(c.Request.Context(), input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, creditNotFound)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"credit":  credit.ToResponse(time.Now()),
		"message": "Crédito registrado exitosamente",
	})
}

// @Summary Get Credit
// @Description Get a credit with its payouts
// @Tags Credits
// @Produce json
// @Param credit_id path int true "Credit ID"
// @Param as_of query string false "Valuation date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /credits/{credit_id} [get]
func (h *CreditHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "credit_id")
	if !ok {
		return
	}
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	credit, err := h.creditService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, creditNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credit": credit.ToResponse(asOf)})
}

// @Summary Credit Accrual
// @Description Get accrued interest and current value of a credit
// @Tags Credits
// @Produce json
// @Param credit_id path int true "Credit ID"
// @Param as_of query string false "Valuation date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} services.CreditAccrual
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /credits/{credit_id}/accrual [get]
func (h *CreditHandler) Accrual(c *gin.Context) {
	id, ok := pathID(c, "credit_id")
	if !ok {
		return
	}
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}

	result, err := h.creditService.Accrual(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err, creditNotFound)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Record Payout
// @Description Record money paid to the creditor (interest_only, partial_principal, full_maturity, early_withdrawal)
// @Tags Credits
// @Accept json
// @Produce json
// @Param credit_id path int true "Credit ID"
// @Param payout body services.PayoutInput true "Payout"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /credits/{credit_id}/payouts [post]
func (h *CreditHandler) RecordPayout(c *gin.Context) {
	id, ok := pathID(c, "credit_id")
	if !ok {
		return
	}

	var input services.PayoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos del pago inválidos"})
		return
	}

	credit, err := h.creditService.RecordPayout(c.Request.Context(), id, input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, creditNotFound)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"credit":  credit.ToResponse(time.Now()),
		"message": "Pago al acreedor registrado",
	})
}

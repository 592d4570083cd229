package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-lending/internal/middleware"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/services"
	"github.com/sjperalta/fintera-lending/internal/statemachine"
)

const loanNotFound = "Préstamo no encontrado"

type LoanHandler struct {
	loanService    *services.LoanService
	badDebtService *services.BadDebtService
}

func NewLoanHandler(loanService *services.LoanService, badDebtService *services.BadDebtService) *LoanHandler {
	return &LoanHandler{loanService: loanService, badDebtService: badDebtService}
}

// ChangeStatusRequest fires a lifecycle event on a loan
type ChangeStatusRequest struct {
	Event string `json:"event" binding:"required" example:"flag_non_performing"`
}

// @Summary List Loans
// @Description Get a paginated list of loans
// @Tags Loans
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by debtor or reference"
// @Param status query string false "Filter by status"
// @Param archived query bool false "Filter by archived flag"
// @Param cycle query string false "Filter by repayment cycle"
// @Param start_date query string false "Originated on or after (YYYY-MM-DD)"
// @Param end_date query string false "Originated on or before (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	query := listQuery(c, "status", "archived", "cycle", "start_date", "end_date")

	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}

	today := time.Now()
	responses := make([]models.LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, loans[i].ToResponse(today))
	}

	c.JSON(http.StatusOK, gin.H{
		"loans":      responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Create Loan
// @Description Disburse a new loan. The body may be flat or nested under "loan".
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan body services.CreateLoanInput true "Loan"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var input services.CreateLoanInput
	if err := BindNestedOrFlat(c, "loan", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos del préstamo inválidos"})
		return
	}

	loan, err := h.loanService.Create(c.Request.Context(), input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"loan":    loan.ToResponse(time.Now()),
		"message": "Préstamo creado exitosamente",
	})
}

// @Summary Get Loan
// @Description Get a loan with its repayments
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param as_of query string false "Valuation date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "loan_id")
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

	loan, err := h.loanService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}

	repayments := loan.Repayments
	if repayments == nil {
		repayments = []models.Repayment{}
	}
	c.JSON(http.StatusOK, gin.H{
		"loan":             loan.ToResponse(asOf),
		"repayments":       repayments,
		"available_events": statemachine.NewLoanFSM(loan).AvailableEvents(),
	})
}

// @Summary Update Loan
// @Description Reschedule a loan. Omitted fields keep their value.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param loan body services.UpdateLoanInput true "Changes"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id} [patch]
func (h *LoanHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return
	}

	var input services.UpdateLoanInput
	if err := BindNestedOrFlat(c, "loan", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos del préstamo inválidos"})
		return
	}

	loan, err := h.loanService.Update(c.Request.Context(), id, input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loan":    loan.ToResponse(time.Now()),
		"message": "Préstamo actualizado exitosamente",
	})
}

// @Summary Loan Schedule
// @Description Get the installment plan of a loan
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} services.LoanSchedule
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/schedule [get]
func (h *LoanHandler) Schedule(c *gin.Context) {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return
	}

	plan, err := h.loanService.Schedule(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// @Summary Loan Accrual
// @Description Get accrued interest, current value and delinquency of a loan
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param as_of query string false "Valuation date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} services.LoanAccrual
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/accrual [get]
func (h *LoanHandler) Accrual(c *gin.Context) {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return
	}
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}

	result, err := h.loanService.Accrual(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Record Repayment
// @Description Record money received against a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param repayment body services.RepaymentInput true "Repayment"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/repayments [post]
func (h *LoanHandler) RecordRepayment(c *gin.Context) {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return
	}

	var input services.RepaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos del abono inválidos"})
		return
	}

	loan, err := h.loanService.RecordRepayment(c.Request.Context(), id, input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"loan":    loan.ToResponse(time.Now()),
		"message": "Abono registrado exitosamente",
	})
}

// @Summary Change Loan Status
// @Description Fire a lifecycle event (flag_non_performing, provision, cure, preliquidate)
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param request body ChangeStatusRequest true "Event"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/status [post]
func (h *LoanHandler) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El evento es requerido"})
		return
	}

	loan, err := h.loanService.ChangeStatus(c.Request.Context(), id, req.Event, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loan":    loan.ToResponse(time.Now()),
		"message": "Estado del préstamo actualizado",
	})
}

// @Summary Archive Loan
// @Description Archive a closed loan so it leaves the default listings
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/archive [post]
func (h *LoanHandler) Archive(c *gin.Context) {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return
	}

	loan, err := h.loanService.Archive(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loan":    loan.ToResponse(time.Now()),
		"message": "Préstamo archivado",
	})
}

// @Summary Declare Bad Debt
// @Description Write off a fully provisioned loan. Amount defaults to the outstanding principal.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param bad_debt body services.DeclareBadDebtInput false "Write-off"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/bad_debt [post]
func (h *LoanHandler) DeclareBadDebt(c *gin.Context) {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return
	}

	var input services.DeclareBadDebtInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de la incobrabilidad inválidos"})
		return
	}

	debt, err := h.badDebtService.Declare(c.Request.Context(), id, input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, loanNotFound)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"bad_debt": debt.ToResponse(),
		"message":  "Préstamo declarado incobrable",
	})
}

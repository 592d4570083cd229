package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-lending/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

// @Summary Balance Sheet
// @Description Assets, liabilities and equity of the fund at a date
// @Tags Reports
// @Produce json
// @Param as_of query string false "Valuation date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} snapshot.BalanceSheet
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /reports/balance_sheet [get]
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	bs, err := h.reportService.BalanceSheet(c.Request.Context(), c.Query("as_of"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, bs)
}

// @Summary Export Balance Sheet
// @Description Download the balance sheet as CSV, XLSX or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Param as_of query string false "Valuation date (YYYY-MM-DD), defaults to today"
// @Success 200 {file} file "balance_sheet"
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /reports/balance_sheet/export [get]
func (h *ReportHandler) ExportBalanceSheet(c *gin.Context) {
	format := c.DefaultQuery("format", services.ExportFormatCSV)

	file, err := h.exportService.ExportBalanceSheet(c.Request.Context(), format, c.Query("as_of"))
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// @Summary Loan Portfolio
// @Description Aggregate statistics over loans originated in a date range
// @Tags Reports
// @Produce json
// @Param as_of query string false "Valuation date (YYYY-MM-DD)"
// @Param start_date query string false "Originated on or after (YYYY-MM-DD)"
// @Param end_date query string false "Originated on or before (YYYY-MM-DD)"
// @Param status query []string false "Statuses, repeated or comma separated"
// @Success 200 {object} snapshot.PortfolioStats
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /reports/portfolio/loans [get]
func (h *ReportHandler) LoanPortfolio(c *gin.Context) {
	stats, err := h.reportService.LoanPortfolio(c.Request.Context(), portfolioInput(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Credit Portfolio
// @Description Aggregate statistics over credits started in a date range
// @Tags Reports
// @Produce json
// @Param as_of query string false "Valuation date (YYYY-MM-DD)"
// @Param start_date query string false "Started on or after (YYYY-MM-DD)"
// @Param end_date query string false "Started on or before (YYYY-MM-DD)"
// @Param status query []string false "Statuses, repeated or comma separated"
// @Success 200 {object} snapshot.PortfolioStats
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /reports/portfolio/credits [get]
func (h *ReportHandler) CreditPortfolio(c *gin.Context) {
	stats, err := h.reportService.CreditPortfolio(c.Request.Context(), portfolioInput(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Loan Register
// @Description Every non-archived loan with its values at a date
// @Tags Reports
// @Produce text/csv
// @Param as_of query string false "Valuation date (YYYY-MM-DD)"
// @Success 200 {file} file "loans.csv"
// @Security BearerAuth
// @Router /reports/loans_csv [get]
func (h *ReportHandler) LoansCSV(c *gin.Context) {
	buf, err := h.reportService.LoanRegisterCSV(c.Request.Context(), c.Query("as_of"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=loans.csv")
	c.String(http.StatusOK, buf.String())
}

// @Summary Overdue Loans
// @Description Open loans with an unpaid installment past its due date
// @Tags Reports
// @Produce text/csv
// @Param as_of query string false "Valuation date (YYYY-MM-DD)"
// @Success 200 {file} file "overdue_loans.csv"
// @Security BearerAuth
// @Router /reports/overdue_loans_csv [get]
func (h *ReportHandler) OverdueLoansCSV(c *gin.Context) {
	buf, err := h.reportService.OverdueLoansCSV(c.Request.Context(), c.Query("as_of"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=overdue_loans.csv")
	c.String(http.StatusOK, buf.String())
}

func portfolioInput(c *gin.Context) services.PortfolioInput {
	return services.PortfolioInput{
		AsOf:      c.Query("as_of"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Statuses:  multiQuery(c, "status"),
	}
}

package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	appreport "github.com/assetflow/backend/internal/application/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard, report listings and XLSX exports
type ReportHandler struct {
	BaseHandler
	reportService *appreport.ReportService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *appreport.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		now:           time.Now,
	}
}

// Dashboard returns headline counts and valuations.
// GET /reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appreport.ScopeFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	resp, err := h.reportService.Dashboard(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Overdue lists outstanding assignments past their due date.
// GET /reports/overdue
func (h *ReportHandler) Overdue(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appreport.ScopeFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	items, err := h.reportService.Overdue(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// Holdings totals what each employee currently holds.
// GET /reports/holdings
func (h *ReportHandler) Holdings(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appreport.ScopeFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	items, err := h.reportService.Holdings(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// ExportOutstanding downloads the outstanding assignments workbook.
// GET /reports/export/outstanding
func (h *ReportHandler) ExportOutstanding(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appreport.ScopeFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportOutstanding(c.Request.Context(), actor, filter, &buf); err != nil {
		h.HandleError(c, err)
		return
	}

	h.attachment(c, "outstanding", buf.Bytes())
}

// ExportLedger downloads the stock ledger workbook.
// GET /reports/export/ledger?from=2006-01-02&to=2006-01-02&product_id=
func (h *ReportHandler) ExportLedger(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appreport.LedgerExportFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportLedger(c.Request.Context(), actor, filter, &buf); err != nil {
		h.HandleError(c, err)
		return
	}

	h.attachment(c, "stock-ledger", buf.Bytes())
}

func (h *ReportHandler) attachment(c *gin.Context, name string, data []byte) {
	fileName := fmt.Sprintf("%s-%s.xlsx", name, h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, appreport.XLSXContentType, data)
}

package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"caskledger/internal/apierror"
	"caskledger/internal/dto"
	"caskledger/internal/infra"
	"caskledger/internal/ledger"
	"caskledger/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct {
	reports   service.ReportService
	dashboard service.DashboardService
}

func NewReportsHandler(reports service.ReportService, dashboard service.DashboardService) *ReportsHandler {
	return &ReportsHandler{reports: reports, dashboard: dashboard}
}

// Monthly answers 400 for a missing or malformed month: it is a query
// parameter problem, not a body validation failure. format=pdf returns the
// same report rendered as a PDF.
func (h *ReportsHandler) Monthly(c *gin.Context) {
	var q dto.MonthlyReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, badQuery(err))
		return
	}
	if _, _, err := ledger.MonthRange(q.Month); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.KindValidation, err.Error()))
		return
	}
	resp, err := h.reports.MonthlyReport(c.Request.Context(), q.Month)
	if err != nil {
		respondError(c, err)
		return
	}
	if q.Format == "pdf" {
		var buf bytes.Buffer
		if err := infra.WriteMonthlyReportPDF(&buf, resp, time.Now()); err != nil {
			_ = c.Error(err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="cogs-%s.pdf"`, q.Month))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportsHandler) DashboardStats(c *gin.Context) {
	resp, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func badQuery(err error) *apierror.APIError {
	return apierror.New(apierror.KindValidation, "invalid query: "+err.Error())
}

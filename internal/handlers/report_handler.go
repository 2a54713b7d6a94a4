package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/strataops/strata-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Arrears Report CSV
// @Description Download the arrears report for a building as CSV
// @Tags Reports
// @Produce text/csv
// @Param building_id query int true "Building ID"
// @Success 200 {file} file "arrears.csv"
// @Security BearerAuth
// @Router /reports/arrears_csv [get]
func (h *ReportHandler) ArrearsCSV(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Query("building_id"), 10, 32)
	if buildingID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "building_id is required"})
		return
	}

	buf, err := h.reportService.GenerateArrearsCSV(c.Request.Context(), uint(buildingID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=arrears.csv")
	c.String(http.StatusOK, buf.String())
}

// @Summary Arrears Report XLSX
// @Description Download the arrears report for a building as a spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param building_id query int true "Building ID"
// @Success 200 {file} file "arrears.xlsx"
// @Security BearerAuth
// @Router /reports/arrears_xlsx [get]
func (h *ReportHandler) ArrearsXLSX(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Query("building_id"), 10, 32)
	if buildingID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "building_id is required"})
		return
	}

	data, filename, err := h.reportService.GenerateArrearsXLSX(c.Request.Context(), uint(buildingID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Collections Report CSV
// @Description Download the income collections report for a building as CSV
// @Tags Reports
// @Produce text/csv
// @Param building_id query int true "Building ID"
// @Param start_date query string false "Entries on or after (YYYY-MM-DD)"
// @Param end_date query string false "Entries on or before (YYYY-MM-DD)"
// @Success 200 {file} file "collections.csv"
// @Security BearerAuth
// @Router /reports/collections_csv [get]
func (h *ReportHandler) CollectionsCSV(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Query("building_id"), 10, 32)
	if buildingID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "building_id is required"})
		return
	}

	buf, err := h.reportService.GenerateCollectionsCSV(c.Request.Context(), uint(buildingID),
		c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=collections.csv")
	c.String(http.StatusOK, buf.String())
}

// @Summary Demand Notice PDF
// @Description Download the printable notice for a demand as PDF
// @Tags Reports
// @Produce application/pdf
// @Param demand_id query int true "Demand ID"
// @Success 200 {file} file "demand_notice.pdf"
// @Security BearerAuth
// @Router /reports/demand_notice_pdf [get]
func (h *ReportHandler) DemandNoticePDF(c *gin.Context) {
	demandID, _ := strconv.ParseUint(c.Query("demand_id"), 10, 32)
	if demandID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "demand_id is required"})
		return
	}

	buf, err := h.reportService.GenerateDemandNoticePDF(c.Request.Context(), uint(demandID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=demand_notice_%d.pdf", demandID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary Payment Receipt PDF
// @Description Download the receipt for a recorded payment as PDF
// @Tags Reports
// @Produce application/pdf
// @Param demand_id query int true "Demand ID"
// @Param reference query string true "Payment reference"
// @Success 200 {file} file "receipt.pdf"
// @Security BearerAuth
// @Router /reports/receipt_pdf [get]
func (h *ReportHandler) ReceiptPDF(c *gin.Context) {
	demandID, _ := strconv.ParseUint(c.Query("demand_id"), 10, 32)
	reference := c.Query("reference")
	if demandID == 0 || reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "demand_id and reference are required"})
		return
	}

	buf, err := h.reportService.GenerateReceiptPDF(c.Request.Context(), uint(demandID), reference)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%d.pdf", demandID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

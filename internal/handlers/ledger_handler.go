package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/strataops/strata-api/internal/middleware"
	"github.com/strataops/strata-api/internal/repository"
	"github.com/strataops/strata-api/internal/services"
)

type LedgerHandler struct {
	ledgerService *services.LedgerService
}

func NewLedgerHandler(ledgerService *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// @Summary Building Ledger
// @Description Get a paginated list of ledger entries for a building
// @Tags Ledger
// @Produce json
// @Param building_id path int true "Building ID"
// @Param entry_type query string false "income or expenditure"
// @Param category query string false "Filter by category"
// @Param start_date query string false "Entries on or after (YYYY-MM-DD)"
// @Param end_date query string false "Entries on or before (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings/{building_id}/ledger [get]
func (h *LedgerHandler) Index(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["entry_type"] = c.Query("entry_type")
	query.Filters["category"] = c.Query("category")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	entries, total, err := h.ledgerService.FindByBuilding(c.Request.Context(), uint(buildingID), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

type RecordExpenditureRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// @Summary Record Expenditure
// @Description Append an expenditure entry to the building ledger
// @Tags Ledger
// @Accept json
// @Produce json
// @Param building_id path int true "Building ID"
// @Param request body RecordExpenditureRequest true "Expenditure details"
// @Success 201 {object} models.LedgerEntryResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /buildings/{building_id}/ledger/expenditures [post]
func (h *LedgerHandler) RecordExpenditure(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)

	var req RecordExpenditureRequest
	if err := BindNestedOrFlat(c, "expenditure", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expenditure payload"})
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	entry, err := h.ledgerService.RecordExpenditure(c.Request.Context(), uint(buildingID), req.Amount,
		req.Category, req.Description, date, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry.ToResponse()})
}

// @Summary Collection Summary
// @Description Get demand and ledger aggregates for a building
// @Tags Ledger
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} services.CollectionSummary
// @Security BearerAuth
// @Router /buildings/{building_id}/ledger/summary [get]
func (h *LedgerHandler) Summary(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)

	summary, err := h.ledgerService.Summary(c.Request.Context(), uint(buildingID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

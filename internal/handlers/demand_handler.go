package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/strataops/strata-api/internal/middleware"
	"github.com/strataops/strata-api/internal/repository"
	"github.com/strataops/strata-api/internal/services"
	"gorm.io/gorm"
)

type DemandHandler struct {
	demandService  *services.DemandService
	paymentService *services.PaymentService
	penaltyService *services.PenaltyService
}

func NewDemandHandler(demandService *services.DemandService, paymentService *services.PaymentService, penaltyService *services.PenaltyService) *DemandHandler {
	return &DemandHandler{
		demandService:  demandService,
		paymentService: paymentService,
		penaltyService: penaltyService,
	}
}

type GenerateDemandsRequest struct {
	Period      string          `json:"period" binding:"required"`
	RatePerArea decimal.Decimal `json:"ratePerArea"`
}

// @Summary Generate Demands
// @Description Generate charge demands for every occupied flat of a building for a billing period
// @Tags Demands
// @Accept json
// @Produce json
// @Param building_id path int true "Building ID"
// @Param request body GenerateDemandsRequest true "Generation parameters"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /buildings/{building_id}/demands/generate [post]
func (h *DemandHandler) Generate(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)

	var req GenerateDemandsRequest
	if err := BindNestedOrFlat(c, "demand", &req); err != nil || req.Period == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period is required"})
		return
	}

	demands, err := h.demandService.GenerateDemands(c.Request.Context(), uint(buildingID), req.Period, req.RatePerArea,
		middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrInvalidRate):
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range demands {
		responses = append(responses, demands[i].ToResponse())
	}

	c.JSON(http.StatusCreated, gin.H{
		"demands": responses,
		"count":   len(demands),
	})
}

// @Summary List Demands
// @Description Get a paginated list of charge demands
// @Tags Demands
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param building_id query int false "Filter by building"
// @Param period query string false "Filter by billing period"
// @Param status query string false "Filter by status (comma list, or 'unpaid')"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /demands [get]
func (h *DemandHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["building_id"] = c.Query("building_id")
	query.Filters["period"] = c.Query("period")
	query.Filters["status"] = c.Query("status")
	query.Search = c.Query("search")

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	demands, total, err := h.demandService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range demands {
		responses = append(responses, demands[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"demands": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Demand
// @Description Get a charge demand by ID, including its payment history
// @Tags Demands
// @Accept json
// @Produce json
// @Param demand_id path int true "Demand ID"
// @Success 200 {object} models.ChargeDemandResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /demands/{demand_id} [get]
func (h *DemandHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("demand_id"), 10, 32)
	demand, err := h.demandService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demand not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"demand": demand.ToResponse()})
}

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Date      string          `json:"date"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// @Summary Record Payment
// @Description Record a payment against a charge demand
// @Tags Demands
// @Accept json
// @Produce json
// @Param demand_id path int true "Demand ID"
// @Param request body RecordPaymentRequest true "Payment details"
// @Success 200 {object} models.ChargeDemandResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /demands/{demand_id}/payments [post]
func (h *DemandHandler) RecordPayment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("demand_id"), 10, 32)

	var req RecordPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment payload"})
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

	demand, err := h.paymentService.RecordPayment(c.Request.Context(), uint(id), req.Amount, date,
		req.Method, req.Reference, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrInvalidAmount), errors.Is(err, services.ErrInvalidState):
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"demand": demand.ToResponse()})
}

// @Summary Payment History
// @Description Get the ordered payment history of a demand
// @Tags Demands
// @Produce json
// @Param demand_id path int true "Demand ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /demands/{demand_id}/payments [get]
func (h *DemandHandler) PaymentHistory(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("demand_id"), 10, 32)
	history, err := h.paymentService.PaymentHistory(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demand not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": history})
}

// @Summary Send Reminder
// @Description Send a payment reminder for a demand; a no-op once the reminder cap is reached
// @Tags Demands
// @Produce json
// @Param demand_id path int true "Demand ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /demands/{demand_id}/reminders [post]
func (h *DemandHandler) SendReminder(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("demand_id"), 10, 32)
	if err := h.penaltyService.SendReminder(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Demand not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder processed"})
}

// @Summary Apply Penalties
// @Description Run the late-payment penalty sweep for a building
// @Tags Demands
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings/{building_id}/penalties/apply [post]
func (h *DemandHandler) ApplyPenalties(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)

	count, err := h.penaltyService.ApplyPenalties(c.Request.Context(), uint(buildingID), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"penalized": count})
}

// @Summary Send Due Reminders
// @Description Run the reminder eligibility sweep for a building
// @Tags Demands
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings/{building_id}/reminders/send [post]
func (h *DemandHandler) SendDueReminders(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)

	count, err := h.penaltyService.SendDueReminders(c.Request.Context(), uint(buildingID), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders_sent": count})
}

// @Summary Demand Stats
// @Description Get demand aggregates for a building (demanded, collected, outstanding, overdue count)
// @Tags Demands
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} repository.DemandStats
// @Security BearerAuth
// @Router /buildings/{building_id}/demands/stats [get]
func (h *DemandHandler) Stats(c *gin.Context) {
	buildingID, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)

	stats, err := h.demandService.GetStats(c.Request.Context(), uint(buildingID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

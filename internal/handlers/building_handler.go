package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/strataops/strata-api/internal/repository"
	"github.com/strataops/strata-api/internal/services"
)

type BuildingHandler struct {
	buildingService *services.BuildingService
}

func NewBuildingHandler(buildingService *services.BuildingService) *BuildingHandler {
	return &BuildingHandler{buildingService: buildingService}
}

// @Summary List Buildings
// @Description Get a paginated list of buildings
// @Tags Buildings
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings [get]
func (h *BuildingHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")

	buildings, total, err := h.buildingService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range buildings {
		responses = append(responses, buildings[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"buildings": responses, "pagination": gin.H{"total": total}})
}

// @Summary Get Building
// @Description Get a building by ID
// @Tags Buildings
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} models.BuildingResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /buildings/{building_id} [get]
func (h *BuildingHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)
	building, err := h.buildingService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Building not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"building": building.ToResponse()})
}

// @Summary List Flats
// @Description Get the flats of a building
// @Tags Buildings
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings/{building_id}/flats [get]
func (h *BuildingHandler) Flats(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("building_id"), 10, 32)
	flats, err := h.buildingService.Flats(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range flats {
		responses = append(responses, flats[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"flats": responses})
}

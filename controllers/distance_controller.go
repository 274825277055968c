package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"raceday-api/middleware"
	"raceday-api/services"
)

type DistanceController struct {
	distances *services.DistanceService
	logger    *slog.Logger
}

func NewDistanceController(distances *services.DistanceService, logger *slog.Logger) *DistanceController {
	return &DistanceController{distances: distances, logger: logger}
}

type DistanceRequest struct {
	Km int `json:"km" binding:"required"`
}

func (dc *DistanceController) GetDistances(c *gin.Context) {
	distances, err := dc.distances.List(c.Request.Context())
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distances": distances})
}

func (dc *DistanceController) CreateDistance(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	var req DistanceRequest
	if !bindJSON(c, &req) {
		return
	}

	distance, err := dc.distances.Create(c.Request.Context(), actor, req.Km)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, distance)
}

func (dc *DistanceController) DeleteDistance(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := dc.distances.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Distance deleted successfully"})
}

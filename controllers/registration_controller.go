package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"raceday-api/middleware"
	"raceday-api/services"
)

type RegistrationController struct {
	registrations *services.RegistrationService
	logger        *slog.Logger
}

func NewRegistrationController(registrations *services.RegistrationService, logger *slog.Logger) *RegistrationController {
	return &RegistrationController{registrations: registrations, logger: logger}
}

type UpdateRegistrationRequest struct {
	DistanceID uint `json:"distance_id" binding:"required"`
}

// GetMine pages the caller's registrations by event start
func (rc *RegistrationController) GetMine(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	page, err := rc.registrations.Mine(c.Request.Context(), actor, pageRequest(c))
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}
	sendPage(c, page)
}

func (rc *RegistrationController) GetRegistration(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reg, err := rc.registrations.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

// UpdateRegistration changes the registered distance
func (rc *RegistrationController) UpdateRegistration(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}

	reg, err := rc.registrations.Update(c.Request.Context(), actor, id, req.DistanceID)
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

func (rc *RegistrationController) DeleteRegistration(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := rc.registrations.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Registration cancelled"})
}

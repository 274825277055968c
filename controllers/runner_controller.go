// File: /controllers/runner_controller.go
package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"raceday-api/middleware"
	"raceday-api/models"
	"raceday-api/services"
	"raceday-api/sessions"
)

type RunnerController struct {
	runners  *services.RunnerService
	sessions *sessions.Store
	logger   *slog.Logger
}

func NewRunnerController(runners *services.RunnerService, store *sessions.Store, logger *slog.Logger) *RunnerController {
	return &RunnerController{runners: runners, sessions: store, logger: logger}
}

type UpdateRunnerRequest struct {
	Username        string        `json:"username"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	City            string        `json:"city"`
	DateOfBirth     *models.Date  `json:"date_of_birth"`
	Gender          models.Gender `json:"gender"`
	PhoneNumber     string        `json:"phone_number"`
	Email           string        `json:"email"`
	NewPassword     string        `json:"new_password"`
	ConfirmPassword string        `json:"confirm_password"`
	IsStaff         *bool         `json:"is_staff"`
}

func (rc *RunnerController) GetRunners(c *gin.Context) {
	page, err := rc.runners.List(c.Request.Context(), c.Query("search"), pageRequest(c))
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}
	sendPage(c, page)
}

// GetRunner returns the profile with age and one page of registrations
func (rc *RunnerController) GetRunner(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	profile, err := rc.runners.Get(c.Request.Context(), id, pageRequest(c))
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (rc *RunnerController) UpdateRunner(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateRunnerRequest
	if !bindJSON(c, &req) {
		return
	}

	runner, passwordChanged, err := rc.runners.Update(c.Request.Context(), actor, id, services.UpdateRunnerInput{
		Username:        req.Username,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		City:            req.City,
		DateOfBirth:     req.DateOfBirth,
		Gender:          req.Gender,
		PhoneNumber:     req.PhoneNumber,
		Email:           req.Email,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
		IsStaff:         req.IsStaff,
	})
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}

	// keep the runner signed in after changing their own password
	if passwordChanged && actor.RunnerID == runner.ID {
		if err := rc.sessions.Login(c.Writer, c.Request, runner.ID, runner.CredentialFingerprint()); err != nil {
			respondError(c, rc.logger, err)
			return
		}
	}
	c.JSON(http.StatusOK, runner)
}

func (rc *RunnerController) DeleteRunner(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := rc.runners.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, rc.logger, err)
		return
	}
	if actor.RunnerID == id {
		if err := rc.sessions.Logout(c.Writer, c.Request); err != nil {
			rc.logger.Warn("Failed to clear session", slog.Any("error", err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Runner deleted successfully"})
}

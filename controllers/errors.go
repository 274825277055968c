package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"raceday-api/repositories"
	"raceday-api/services"
	"raceday-api/utils"
)

// respondError writes the response for an error returned by a service
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrDuplicateRegistration) || errors.Is(err, services.ErrUsernameTaken) {
			status = http.StatusConflict
		}
		utils.SendFieldErrors(c, status, utils.FieldError{Field: verr.Field, Message: verr.Message})
	case errors.Is(err, services.ErrForbidden):
		utils.SendError(c, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrNotFound):
		utils.SendError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.SendError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrDistanceInUse):
		utils.SendError(c, http.StatusConflict, err.Error())
	default:
		logger.Error("Request failed",
			slog.String("request_id", c.GetString("request_id")),
			slog.String("route", c.FullPath()),
			slog.Any("error", err),
		)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// bindJSON decodes the request body, answering 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.SendValidationError(c, "", err.Error())
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParamID(c, name)
	if !ok {
		utils.SendError(c, http.StatusNotFound, "Not found")
	}
	return id, ok
}

func pageRequest(c *gin.Context) repositories.PageRequest {
	return repositories.PageRequest{Page: utils.QueryPage(c)}
}

func sendPage[T any](c *gin.Context, p *repositories.Page[T]) {
	utils.SendPaginated(c, p.Items, p.Page, p.PageSize, p.Total)
}

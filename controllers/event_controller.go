// File: /controllers/event_controller.go
package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"raceday-api/middleware"
	"raceday-api/models"
	"raceday-api/repositories"
	"raceday-api/services"
	"raceday-api/utils"
)

type EventController struct {
	events        *services.EventService
	registrations *services.RegistrationService
	logger        *slog.Logger
}

func NewEventController(events *services.EventService, registrations *services.RegistrationService, logger *slog.Logger) *EventController {
	return &EventController{
		events:        events,
		registrations: registrations,
		logger:        logger,
	}
}

type EventRequest struct {
	Name          string           `json:"name" binding:"required"`
	StartDatetime time.Time        `json:"start_datetime" binding:"required"`
	Location      string           `json:"location" binding:"required"`
	Description   string           `json:"description"`
	EventType     models.EventType `json:"event_type" binding:"required"`
	Organiser     string           `json:"organiser" binding:"required"`
	DistanceIDs   []uint           `json:"distance_ids"`
}

func (r EventRequest) input() services.EventInput {
	return services.EventInput{
		Name:          r.Name,
		StartDatetime: r.StartDatetime,
		Location:      r.Location,
		Description:   r.Description,
		EventType:     r.EventType,
		Organiser:     r.Organiser,
		DistanceIDs:   r.DistanceIDs,
	}
}

type RegisterRequest struct {
	DistanceID uint `json:"distance_id" binding:"required"`
	// staff only; defaults to the caller
	RunnerID uint `json:"runner_id"`
}

func eventFilter(c *gin.Context) repositories.EventFilter {
	return repositories.EventFilter{
		Name:      c.Query("name"),
		Location:  c.Query("location"),
		EventType: models.EventType(c.Query("event_type")),
	}
}

// GetEvents lists upcoming events, earliest first
func (ec *EventController) GetEvents(c *gin.Context) {
	page, err := ec.events.ListUpcoming(c.Request.Context(), eventFilter(c), pageRequest(c))
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	sendPage(c, page)
}

// GetArchive lists events that already started, latest first
func (ec *EventController) GetArchive(c *gin.Context) {
	page, err := ec.events.ListArchive(c.Request.Context(), eventFilter(c), pageRequest(c))
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	sendPage(c, page)
}

func (ec *EventController) GetEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	event, err := ec.events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (ec *EventController) CreateEvent(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	var req EventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := ec.events.Create(c.Request.Context(), actor, req.input())
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	c.JSON(http.StatusCreated, repositories.Summarize(*event, 0))
}

func (ec *EventController) UpdateEvent(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req EventRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := ec.events.Update(c.Request.Context(), actor, id, req.input()); err != nil {
		respondError(c, ec.logger, err)
		return
	}
	summary, err := ec.events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (ec *EventController) DeleteEvent(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ec.events.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, ec.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

// GetRegistrations pages the event's start list
func (ec *EventController) GetRegistrations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := ec.registrations.ForEvent(c.Request.Context(), id, pageRequest(c))
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	regs := result.Registrations
	c.JSON(http.StatusOK, gin.H{
		"event": result.Event,
		"registrations": utils.PaginatedResponse{
			Data:       regs.Items,
			Page:       regs.Page,
			PageSize:   regs.PageSize,
			Total:      regs.Total,
			TotalPages: regs.TotalPages,
			HasNext:    regs.HasNext(),
		},
	})
}

func (ec *EventController) Register(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	reg, err := ec.registrations.Create(c.Request.Context(), actor, id, req.RunnerID, req.DistanceID)
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// ExportStartList downloads the start list as an XLSX workbook
func (ec *EventController) ExportStartList(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	event, entries, err := ec.registrations.StartList(c.Request.Context(), id)
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	data, err := services.WriteStartList(event, entries)
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.StartListFilename(event)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

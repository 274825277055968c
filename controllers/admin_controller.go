package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"raceday-api/models"
	"raceday-api/repositories"
	"raceday-api/services"
	"raceday-api/utils"
)

// adminView describes how the console lists one entity
type adminView struct {
	Columns      []string `json:"columns"`
	SearchFields []string `json:"search_fields"`
	Filters      []string `json:"filters"`
}

var (
	runnerView = adminView{
		Columns:      []string{"full_name", "username", "gender", "date_of_birth", "phone_number", "email", "is_staff"},
		SearchFields: []string{"username", "first_name", "last_name"},
		Filters:      []string{},
	}
	distanceView = adminView{
		Columns:      []string{"km"},
		SearchFields: []string{},
		Filters:      []string{},
	}
	eventView = adminView{
		Columns:      []string{"start_datetime", "name", "event_type", "location"},
		SearchFields: []string{"name"},
		Filters:      []string{"name", "start_from", "start_to", "event_type"},
	}
	registrationView = adminView{
		Columns:      []string{"event_date", "event", "runner"},
		SearchFields: []string{"runner.last_name", "runner.first_name", "event.name"},
		Filters:      []string{"event_id", "start_from", "start_to"},
	}
)

type AdminController struct {
	runners       *services.RunnerService
	distances     *services.DistanceService
	events        *services.EventService
	registrations *services.RegistrationService
	logger        *slog.Logger
}

func NewAdminController(
	runners *services.RunnerService,
	distances *services.DistanceService,
	events *services.EventService,
	registrations *services.RegistrationService,
	logger *slog.Logger,
) *AdminController {
	return &AdminController{
		runners:       runners,
		distances:     distances,
		events:        events,
		registrations: registrations,
		logger:        logger,
	}
}

type adminRunnerRow struct {
	ID          uint          `json:"id"`
	FullName    string        `json:"full_name"`
	Username    string        `json:"username"`
	Gender      models.Gender `json:"gender"`
	DateOfBirth *models.Date  `json:"date_of_birth"`
	PhoneNumber *string       `json:"phone_number"`
	Email       string        `json:"email"`
	IsStaff     bool          `json:"is_staff"`
}

type adminRegistrationRow struct {
	ID         uint      `json:"id"`
	EventDate  time.Time `json:"event_date"`
	Event      string    `json:"event"`
	EventID    uint      `json:"event_id"`
	Runner     string    `json:"runner"`
	RunnerID   uint      `json:"runner_id"`
	DistanceKm int       `json:"distance_km"`
}

func sendAdminPage[T any](c *gin.Context, view adminView, p *repositories.Page[T]) {
	c.JSON(http.StatusOK, gin.H{
		"view": view,
		"results": utils.PaginatedResponse{
			Data:       p.Items,
			Page:       p.Page,
			PageSize:   p.PageSize,
			Total:      p.Total,
			TotalPages: p.TotalPages,
			HasNext:    p.HasNext(),
		},
	})
}

// dateQuery parses an optional YYYY-MM-DD query value as UTC midnight
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		utils.SendValidationError(c, name, "Enter a valid date (YYYY-MM-DD).")
		return nil, false
	}
	return &d.Time, true
}

func (ac *AdminController) ListRunners(c *gin.Context) {
	page, err := ac.runners.List(c.Request.Context(), c.Query("search"), pageRequest(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	rows := &repositories.Page[adminRunnerRow]{
		Items:      make([]adminRunnerRow, 0, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}
	for _, r := range page.Items {
		rows.Items = append(rows.Items, adminRunnerRow{
			ID:          r.ID,
			FullName:    r.FullName(),
			Username:    r.Username,
			Gender:      r.Gender,
			DateOfBirth: r.DateOfBirth,
			PhoneNumber: r.PhoneNumber,
			Email:       r.Email,
			IsStaff:     r.IsStaff,
		})
	}
	sendAdminPage(c, runnerView, rows)
}

func (ac *AdminController) ListDistances(c *gin.Context) {
	distances, err := ac.distances.List(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": distanceView, "results": distances})
}

func (ac *AdminController) ListEvents(c *gin.Context) {
	from, ok := dateQuery(c, "start_from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "start_to")
	if !ok {
		return
	}

	name := c.Query("name")
	if name == "" {
		name = c.Query("search")
	}
	filter := repositories.EventFilter{
		Name:      name,
		EventType: models.EventType(c.Query("event_type")),
		StartFrom: from,
		StartTo:   to,
	}

	page, err := ac.events.List(c.Request.Context(), filter, pageRequest(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	sendAdminPage(c, eventView, page)
}

func (ac *AdminController) ListRegistrations(c *gin.Context) {
	from, ok := dateQuery(c, "start_from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "start_to")
	if !ok {
		return
	}

	filter := repositories.RegistrationFilter{
		Search:    c.Query("search"),
		StartFrom: from,
		StartTo:   to,
	}
	if raw := c.Query("event_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.SendValidationError(c, "event_id", "Enter a whole number.")
			return
		}
		filter.EventID = uint(id)
	}

	page, err := ac.registrations.List(c.Request.Context(), filter, pageRequest(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	rows := &repositories.Page[adminRegistrationRow]{
		Items:      make([]adminRegistrationRow, 0, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}
	for _, r := range page.Items {
		rows.Items = append(rows.Items, adminRegistrationRow{
			ID:         r.ID,
			EventDate:  r.Event.StartDatetime,
			Event:      r.Event.Name,
			EventID:    r.EventID,
			Runner:     r.Runner.FullName(),
			RunnerID:   r.RunnerID,
			DistanceKm: r.Distance.Km,
		})
	}
	sendAdminPage(c, registrationView, rows)
}

// RefreshActivity rewrites stale activity flags on demand
func (ac *AdminController) RefreshActivity(c *gin.Context) {
	changed, err := ac.events.RefreshActivity(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": changed})
}

package server

import (
	"strconv"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

type eventRequest struct {
	Name                 *string                   `json:"name"`
	Description          *string                   `json:"description"`
	Type                 *models.EventType         `json:"type"`
	OrganizerType        *string                   `json:"organizerType"`
	StartDate            *time.Time                `json:"startDate"`
	EndDate              *time.Time                `json:"endDate"`
	RegistrationDeadline *time.Time                `json:"registrationDeadline"`
	Location             *models.EventLocation     `json:"location"`
	Registration         *eventRegistrationRequest `json:"registration"`
	Status               *models.EventStatus       `json:"status"`
	Tags                 []string                  `json:"tags"`
}

type eventRegistrationRequest struct {
	IsRequired      *bool    `json:"isRequired"`
	IsFree          *bool    `json:"isFree"`
	Fee             *float64 `json:"fee"`
	MaxParticipants *int64   `json:"maxParticipants"`
}

// registration applies the create-time defaults: registration required and free.
func (r *eventRegistrationRequest) registration() models.EventRegistration {
	reg := models.EventRegistration{IsRequired: true, IsFree: true}
	if r == nil {
		return reg
	}
	if r.IsRequired != nil {
		reg.IsRequired = *r.IsRequired
	}
	if r.IsFree != nil {
		reg.IsFree = *r.IsFree
	}
	if r.Fee != nil {
		reg.Fee = *r.Fee
	}
	if r.MaxParticipants != nil {
		reg.MaxParticipants = *r.MaxParticipants
	}
	return reg
}

// GetEvents handles GET /api/events
// @Summary List events
// @Tags events
// @Produce json
// @Param type query string false "Event type"
// @Param status query string false "Event status"
// @Param city query string false "City"
// @Param upcoming query bool false "Only events that have not started"
// @Param search query string false "Name search"
// @Success 200 {object} models.ListEnvelope
// @Router /events [get]
func (s *Server) GetEvents(c *fiber.Ctx) error {
	upcoming, _ := strconv.ParseBool(c.Query("upcoming"))
	page, err := s.eventService.ListEvents(c.UserContext(), repository.EventFilter{
		Type:     models.EventType(c.Query("type")),
		Status:   models.EventStatus(c.Query("status")),
		City:     c.Query("city"),
		Upcoming: upcoming,
		Search:   c.Query("search"),
	}, parsePaging(c, service.DefaultPageLimit))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

// GetEvent handles GET /api/events/:id
// @Summary Get event
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.Envelope{data=models.Event}
// @Router /events/{id} [get]
func (s *Server) GetEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	event, err := s.eventService.GetEvent(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "", event)
}

// CreateEvent handles POST /api/events
// @Summary Create event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body eventRequest true "Event"
// @Success 201 {object} models.Envelope{data=models.Event}
// @Router /events [post]
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.StartDate == nil || req.EndDate == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Start and end dates are required"))
	}
	in := service.CreateEventInput{
		OrganizerID:          currentUserID(c),
		Name:                 derefString(req.Name),
		Description:          derefString(req.Description),
		OrganizerType:        derefString(req.OrganizerType),
		StartDate:            *req.StartDate,
		EndDate:              *req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		Registration:         req.Registration.registration(),
		Tags:                 req.Tags,
	}
	if req.Type != nil {
		in.Type = *req.Type
	}
	if req.Location != nil {
		in.Location = *req.Location
	}
	if req.Status != nil {
		in.Status = *req.Status
	}

	event, err := s.eventService.CreateEvent(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, "Event created successfully", event)
}

// UpdateEvent handles PUT /api/events/:id
// @Summary Update event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param request body eventRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Event}
// @Router /events/{id} [put]
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req eventRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in := service.UpdateEventInput{
		EventID:              id,
		ActorID:              currentUserID(c),
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 req.Type,
		OrganizerType:        req.OrganizerType,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		Location:             req.Location,
		Status:               req.Status,
		Tags:                 req.Tags,
	}
	if r := req.Registration; r != nil {
		in.IsRequired = r.IsRequired
		in.IsFree = r.IsFree
		in.Fee = r.Fee
		in.MaxParticipants = r.MaxParticipants
	}

	event, err := s.eventService.UpdateEvent(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Event updated successfully", event)
}

// CancelEvent handles DELETE /api/events/:id
// @Summary Cancel event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} models.Envelope
// @Router /events/{id} [delete]
func (s *Server) CancelEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.eventService.CancelEvent(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Event cancelled successfully", nil)
}

// RegisterForEvent handles POST /api/events/:id/register
// @Summary Register for event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param request body object{teamId=int} false "Register on behalf of a team"
// @Success 201 {object} models.Envelope{data=models.EventParticipant}
// @Failure 409 {object} models.ErrorResponse "Already registered"
// @Router /events/{id}/register [post]
func (s *Server) RegisterForEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		TeamID *uint `json:"teamId"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	participant, err := s.eventService.Register(c.UserContext(), service.RegisterInput{
		EventID: id,
		UserID:  currentUserID(c),
		TeamID:  req.TeamID,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, "Registered successfully", participant)
}

// UnregisterFromEvent handles DELETE /api/events/:id/register
// @Summary Cancel registration
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} models.Envelope
// @Router /events/{id}/register [delete]
func (s *Server) UnregisterFromEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.eventService.Unregister(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Registration cancelled", nil)
}

// GetParticipants handles GET /api/events/:id/participants
// @Summary Event participants
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.ListEnvelope
// @Router /events/{id}/participants [get]
func (s *Server) GetParticipants(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.eventService.Participants(c.UserContext(), id, parsePaging(c, service.DefaultPageLimit))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

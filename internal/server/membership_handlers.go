package server

import (
	"strings"

	"collegeconnect/internal/models"
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Membership handlers are shared by /teams and /projects; kind selects the roster.

// SendJoinRequest handles POST /api/{teams|projects}/:id/join-requests
// @Summary Ask to join a team or project
// @Tags membership
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team or project ID"
// @Param request body object{message=string,skills=[]string,experience=string} false "Request"
// @Success 201 {object} models.Envelope{data=models.JoinRequest}
// @Failure 409 {object} models.ErrorResponse "Already a member or request pending"
// @Router /teams/{id}/join-requests [post]
// @Router /projects/{id}/join-requests [post]
func (s *Server) SendJoinRequest(kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		var req struct {
			Message    string   `json:"message"`
			Skills     []string `json:"skills"`
			Experience string   `json:"experience"`
		}
		if len(c.Body()) > 0 {
			if err := parseBody(c, &req); err != nil {
				return nil
			}
		}
		joinRequest, err := s.membershipService.SendJoinRequest(c.UserContext(), service.JoinRequestInput{
			Kind:       kind,
			EntityID:   id,
			UserID:     currentUserID(c),
			Message:    req.Message,
			Skills:     req.Skills,
			Experience: req.Experience,
		})
		if err != nil {
			return s.respondError(c, err)
		}
		return respondData(c, fiber.StatusCreated, "Join request sent successfully", joinRequest)
	}
}

// GetJoinRequests handles GET /api/{teams|projects}/:id/join-requests
// @Summary Join requests for a team or project
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team or project ID"
// @Param status query string false "pending, accepted or rejected"
// @Success 200 {object} models.Envelope{data=[]models.JoinRequest}
// @Router /teams/{id}/join-requests [get]
// @Router /projects/{id}/join-requests [get]
func (s *Server) GetJoinRequests(kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		requests, err := s.membershipService.ListJoinRequests(c.UserContext(), kind, id, currentUserID(c),
			models.JoinRequestStatus(c.Query("status")))
		if err != nil {
			return s.respondError(c, err)
		}
		return respondData(c, fiber.StatusOK, "", requests)
	}
}

// RespondToJoinRequest handles POST /api/{teams|projects}/:id/join-requests/:requestId/respond
// @Summary Accept or reject a join request
// @Tags membership
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team or project ID"
// @Param requestId path int true "Join request ID"
// @Param request body object{action=string,message=string} true "action is accept or reject"
// @Success 200 {object} models.Envelope{data=models.JoinRequest}
// @Router /teams/{id}/join-requests/{requestId}/respond [post]
// @Router /projects/{id}/join-requests/{requestId}/respond [post]
func (s *Server) RespondToJoinRequest(kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		requestID, err := s.parseID(c, "requestId")
		if err != nil {
			return nil
		}
		var req struct {
			Action  string `json:"action"`
			Message string `json:"message"`
		}
		if err := parseBody(c, &req); err != nil {
			return nil
		}
		if req.Action != "accept" && req.Action != "reject" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Action must be accept or reject"))
		}

		joinRequest, err := s.membershipService.RespondToJoinRequest(c.UserContext(), service.RespondInput{
			Kind:      kind,
			EntityID:  id,
			RequestID: requestID,
			ActorID:   currentUserID(c),
			Accept:    req.Action == "accept",
			Message:   req.Message,
		})
		if err != nil {
			return s.respondError(c, err)
		}
		return respondData(c, fiber.StatusOK, "Join request "+string(joinRequest.Status), joinRequest)
	}
}

// GetMembers handles GET /api/{teams|projects}/:id/members
// @Summary Active roster
// @Tags membership
// @Produce json
// @Param id path int true "Team or project ID"
// @Success 200 {object} models.Envelope{data=[]models.Member}
// @Router /teams/{id}/members [get]
// @Router /projects/{id}/members [get]
func (s *Server) GetMembers(kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		members, err := s.membershipService.Members(c.UserContext(), kind, id)
		if err != nil {
			return s.respondError(c, err)
		}
		return respondData(c, fiber.StatusOK, "", members)
	}
}

// AddMember handles POST /api/{teams|projects}/:id/members
// @Summary Add a member directly
// @Tags membership
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team or project ID"
// @Param request body object{userId=int,role=string,skills=[]string} true "Member"
// @Success 201 {object} models.Envelope{data=models.Member}
// @Router /teams/{id}/members [post]
// @Router /projects/{id}/members [post]
func (s *Server) AddMember(kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		var req struct {
			UserID uint     `json:"userId"`
			Role   string   `json:"role"`
			Skills []string `json:"skills"`
		}
		if err := parseBody(c, &req); err != nil {
			return nil
		}
		if req.UserID == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("User ID is required"))
		}
		member, err := s.membershipService.AddMember(c.UserContext(), service.AddMemberInput{
			Kind:     kind,
			EntityID: id,
			ActorID:  currentUserID(c),
			UserID:   req.UserID,
			Role:     req.Role,
			Skills:   req.Skills,
		})
		if err != nil {
			return s.respondError(c, err)
		}
		return respondData(c, fiber.StatusCreated, "Member added successfully", member)
	}
}

// RemoveMember handles DELETE /api/{teams|projects}/:id/members/:userId
// @Summary Remove a member, or leave when userId is the caller
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team or project ID"
// @Param userId path int true "User ID"
// @Success 200 {object} models.Envelope
// @Router /teams/{id}/members/{userId} [delete]
// @Router /projects/{id}/members/{userId} [delete]
func (s *Server) RemoveMember(kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		userID, err := s.parseID(c, "userId")
		if err != nil {
			return nil
		}

		actorID := currentUserID(c)
		if userID == actorID {
			if err := s.membershipService.Leave(c.UserContext(), kind, id, actorID); err != nil {
				return s.respondError(c, err)
			}
			return respondData(c, fiber.StatusOK, "Left "+strings.ToLower(kind.Label())+" successfully", nil)
		}
		if err := s.membershipService.RemoveMember(c.UserContext(), kind, id, actorID, userID); err != nil {
			return s.respondError(c, err)
		}
		return respondData(c, fiber.StatusOK, "Member removed successfully", nil)
	}
}

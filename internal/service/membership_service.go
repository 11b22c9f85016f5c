package service

import (
	"context"
	"fmt"
	"strings"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// MembershipService runs the join request workflow and roster changes for
// teams and projects alike.
type MembershipService struct {
	repo          repository.MembershipRepository
	users         repository.UserRepository
	notifications *NotificationService
	publisher     Publisher
	isAdmin       AdminCheck
}

type JoinRequestInput struct {
	Kind       models.EntityKind
	EntityID   uint
	UserID     uint
	Message    string
	Skills     []string
	Experience string
}

type RespondInput struct {
	Kind      models.EntityKind
	EntityID  uint
	RequestID uint
	ActorID   uint
	Accept    bool
	Message   string
}

type AddMemberInput struct {
	Kind     models.EntityKind
	EntityID uint
	ActorID  uint
	UserID   uint
	Role     string
	Skills   []string
}

// MembershipEvent is the realtime payload for roster and request changes.
type MembershipEvent struct {
	Kind      models.EntityKind        `json:"kind"`
	EntityID  uint                     `json:"entityId"`
	UserID    uint                     `json:"userId"`
	RequestID uint                     `json:"requestId,omitempty"`
	Status    models.JoinRequestStatus `json:"status,omitempty"`
	Action    string                   `json:"action"`
}

func NewMembershipService(
	repo repository.MembershipRepository,
	users repository.UserRepository,
	notifications *NotificationService,
	publisher Publisher,
	isAdmin AdminCheck,
) *MembershipService {
	return &MembershipService{
		repo:          repo,
		users:         users,
		notifications: notifications,
		publisher:     publisherOrNop(publisher),
		isAdmin:       isAdmin,
	}
}

func (s *MembershipService) roster(ctx context.Context, kind models.EntityKind, id uint) (models.RosterInfo, error) {
	if !kind.Valid() {
		return models.RosterInfo{}, models.NewValidationError("Unknown entity kind")
	}
	return s.repo.Roster(ctx, kind, id)
}

// canManage passes for the leader or owner and for admins.
func (s *MembershipService) canManage(ctx context.Context, roster models.RosterInfo, userID uint) error {
	manager := "team leader"
	if roster.Kind == models.KindProject {
		manager = "project owner"
	}
	return authorize(ctx, s.isAdmin, roster.ManagerID, userID, fmt.Sprintf("Only the %s can manage members", manager))
}

// CanManage reports whether userID may manage the roster of the entity.
func (s *MembershipService) CanManage(ctx context.Context, kind models.EntityKind, id, userID uint) error {
	roster, err := s.roster(ctx, kind, id)
	if err != nil {
		return err
	}
	return s.canManage(ctx, roster, userID)
}

// SendJoinRequest files a pending request. Active members and users with a
// pending request are rejected with a conflict.
func (s *MembershipService) SendJoinRequest(ctx context.Context, in JoinRequestInput) (req *models.JoinRequest, err error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "membership", "SendJoinRequest",
		attribute.String("kind", string(in.Kind)),
		attribute.Int64("entity_id", int64(in.EntityID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	var errs validation.Errors
	errs.MaxLength("message", in.Message, 500, "Message cannot exceed 500 characters")
	errs.MaxLength("experience", in.Experience, 500, "Experience cannot exceed 500 characters")
	if err = errs.Err(); err != nil {
		return nil, err
	}

	roster, err := s.roster(ctx, in.Kind, in.EntityID)
	if err != nil {
		return nil, err
	}
	if !roster.AcceptingMembers() {
		return nil, models.NewValidationError(fmt.Sprintf("%s is not accepting new members", in.Kind.Label()))
	}

	req = &models.JoinRequest{
		EntityKind:  in.Kind,
		EntityID:    in.EntityID,
		UserID:      in.UserID,
		Message:     strings.TrimSpace(in.Message),
		Skills:      trimList(in.Skills),
		Experience:  strings.TrimSpace(in.Experience),
		Status:      models.JoinRequestPending,
		RequestedAt: utcNow(),
	}
	if err = s.repo.CreateJoinRequest(ctx, req); err != nil {
		return nil, err
	}
	observability.RecordJoinRequest(string(in.Kind), "sent")

	notifyType := models.NotifyTeamJoinRequest
	if in.Kind == models.KindProject {
		notifyType = models.NotifyProjectJoinRequest
	}
	sender := in.UserID
	s.notifications.notifyQuietly(ctx, &models.Notification{
		RecipientID:   roster.ManagerID,
		SenderID:      &sender,
		Type:          notifyType,
		Title:         "New join request",
		Message:       fmt.Sprintf("Someone asked to join your %s", strings.ToLower(in.Kind.Label())),
		RelatedEntity: models.RelatedToKind(in.Kind, in.EntityID),
		Priority:      models.PriorityHigh,
	})
	s.publisher.PublishUser(ctx, roster.ManagerID, EventJoinRequestUpdated, MembershipEvent{
		Kind: in.Kind, EntityID: in.EntityID, UserID: in.UserID, RequestID: req.ID,
		Status: req.Status, Action: "requested",
	})
	return req, nil
}

// ListJoinRequests is restricted to the leader, owner or an admin.
func (s *MembershipService) ListJoinRequests(ctx context.Context, kind models.EntityKind, id, actorID uint, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	roster, err := s.roster(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.canManage(ctx, roster, actorID); err != nil {
		return nil, err
	}
	var errs validation.Errors
	validation.OneOf(&errs, "status", status,
		[]models.JoinRequestStatus{models.JoinRequestPending, models.JoinRequestAccepted, models.JoinRequestRejected},
		true, "Invalid status filter")
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return s.repo.ListJoinRequests(ctx, kind, id, status)
}

// RespondToJoinRequest settles a pending request. Accepting adds the
// requester to the roster in the same transaction.
func (s *MembershipService) RespondToJoinRequest(ctx context.Context, in RespondInput) (req *models.JoinRequest, err error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "membership", "RespondToJoinRequest",
		attribute.String("kind", string(in.Kind)),
		attribute.Int64("entity_id", int64(in.EntityID)),
		attribute.Bool("accept", in.Accept),
	)
	defer func() { observability.EndSpan(span, err) }()

	var errs validation.Errors
	errs.MaxLength("message", in.Message, 500, "Response message cannot exceed 500 characters")
	if err = errs.Err(); err != nil {
		return nil, err
	}
	roster, err := s.roster(ctx, in.Kind, in.EntityID)
	if err != nil {
		return nil, err
	}
	if err = s.canManage(ctx, roster, in.ActorID); err != nil {
		return nil, err
	}
	if in.Accept && !roster.AcceptingMembers() {
		return nil, models.NewValidationError(fmt.Sprintf("%s is not accepting new members", in.Kind.Label()))
	}

	req, err = s.repo.RespondToJoinRequest(ctx, in.Kind, in.EntityID, in.RequestID, in.Accept, strings.TrimSpace(in.Message), utcNow())
	if err != nil {
		return nil, err
	}
	observability.RecordJoinRequest(string(in.Kind), string(req.Status))

	s.notifications.notifyQuietly(ctx, responseNotification(in.Kind, in.EntityID, in.ActorID, req))
	s.publisher.PublishUser(ctx, req.UserID, EventJoinRequestUpdated, MembershipEvent{
		Kind: in.Kind, EntityID: in.EntityID, UserID: req.UserID, RequestID: req.ID,
		Status: req.Status, Action: "responded",
	})
	return req, nil
}

func responseNotification(kind models.EntityKind, id, actorID uint, req *models.JoinRequest) *models.Notification {
	n := &models.Notification{
		RecipientID:   req.UserID,
		SenderID:      &actorID,
		RelatedEntity: models.RelatedToKind(kind, id),
	}
	accepted := req.Status == models.JoinRequestAccepted
	switch {
	case kind == models.KindProject && accepted:
		n.Type = models.NotifyProjectRequestAccepted
	case kind == models.KindProject:
		n.Type = models.NotifyProjectRequestRejected
	default:
		n.Type = models.NotifyTeamInvitation
	}
	label := strings.ToLower(kind.Label())
	if accepted {
		n.Title = "Join request accepted"
		n.Message = fmt.Sprintf("You are now a member of the %s", label)
	} else {
		n.Title = "Join request declined"
		n.Message = fmt.Sprintf("Your request to join the %s was declined", label)
	}
	if req.ResponseMessage != "" {
		n.Message = truncate(n.Message+": "+req.ResponseMessage, 500)
	}
	return n
}

// AddMember puts a user straight onto the roster.
func (s *MembershipService) AddMember(ctx context.Context, in AddMemberInput) (*models.Member, error) {
	if in.Role == "" {
		in.Role = models.RoleMember
	}
	var errs validation.Errors
	errs.Length("role", in.Role, 1, 50, "Role must be between 1 and 50 characters")
	errs.Require(in.Role != models.RoleLeader && in.Role != models.RoleOwner, "role", "That role is reserved")
	if err := errs.Err(); err != nil {
		return nil, err
	}

	roster, err := s.roster(ctx, in.Kind, in.EntityID)
	if err != nil {
		return nil, err
	}
	if err := s.canManage(ctx, roster, in.ActorID); err != nil {
		return nil, err
	}
	if !roster.AcceptingMembers() {
		return nil, models.NewValidationError(fmt.Sprintf("%s is not accepting new members", in.Kind.Label()))
	}
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewNotFoundError("User", in.UserID)
	}

	member, err := s.repo.AddMember(ctx, in.Kind, in.EntityID, in.UserID, strings.TrimSpace(in.Role), trimList(in.Skills), utcNow())
	if err != nil {
		return nil, err
	}
	observability.RecordJoinRequest(string(in.Kind), "added")

	notifyType := models.NotifyTeamInvitation
	if in.Kind == models.KindProject {
		notifyType = models.NotifyProjectUpdate
	}
	actor := in.ActorID
	s.notifications.notifyQuietly(ctx, &models.Notification{
		RecipientID:   in.UserID,
		SenderID:      &actor,
		Type:          notifyType,
		Title:         "Added to " + strings.ToLower(in.Kind.Label()),
		Message:       fmt.Sprintf("You were added as %s", member.Role),
		RelatedEntity: models.RelatedToKind(in.Kind, in.EntityID),
	})
	s.publisher.PublishUser(ctx, in.UserID, EventMembershipChanged, MembershipEvent{
		Kind: in.Kind, EntityID: in.EntityID, UserID: in.UserID, Action: "added",
	})
	return member, nil
}

// RemoveMember drops userID from the roster. Members may remove themselves;
// removing anyone else takes the leader, owner or an admin.
func (s *MembershipService) RemoveMember(ctx context.Context, kind models.EntityKind, id, actorID, userID uint) error {
	roster, err := s.roster(ctx, kind, id)
	if err != nil {
		return err
	}
	if actorID != userID {
		if err := s.canManage(ctx, roster, actorID); err != nil {
			return err
		}
	}
	if err := s.repo.RemoveMember(ctx, kind, id, userID); err != nil {
		return err
	}
	action := "removed"
	if actorID == userID {
		action = "left"
	}
	s.publisher.PublishUser(ctx, roster.ManagerID, EventMembershipChanged, MembershipEvent{
		Kind: kind, EntityID: id, UserID: userID, Action: action,
	})
	if actorID != userID {
		s.publisher.PublishUser(ctx, userID, EventMembershipChanged, MembershipEvent{
			Kind: kind, EntityID: id, UserID: userID, Action: action,
		})
	}
	return nil
}

// Leave removes the caller from the roster.
func (s *MembershipService) Leave(ctx context.Context, kind models.EntityKind, id, userID uint) error {
	return s.RemoveMember(ctx, kind, id, userID, userID)
}

func (s *MembershipService) Members(ctx context.Context, kind models.EntityKind, id uint) ([]models.Member, error) {
	if _, err := s.roster(ctx, kind, id); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, kind, id)
}

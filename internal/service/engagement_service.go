package service

import (
	"context"
	"fmt"

	"collegeconnect/internal/cache"
	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"
	"collegeconnect/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// EngagementService applies votes to posts and comments.
type EngagementService struct {
	votes         repository.VoteRepository
	notifications *NotificationService
	publisher     Publisher
}

// VoteUpdate is the realtime payload sent after a vote changes.
type VoteUpdate struct {
	Entity string `json:"entity"`
	ID     uint   `json:"id"`
	models.VoteCounts
}

func NewEngagementService(votes repository.VoteRepository, notifications *NotificationService, publisher Publisher) *EngagementService {
	return &EngagementService{
		votes:         votes,
		notifications: notifications,
		publisher:     publisherOrNop(publisher),
	}
}

// Upvote puts userID in the upvote set of the target, leaving the downvote
// set if needed. Repeating an upvote fails with ALREADY_VOTED.
func (s *EngagementService) Upvote(ctx context.Context, t repository.VoteTarget, id, userID uint) (models.VoteCounts, error) {
	return s.vote(ctx, t, id, userID, models.VoteUp)
}

// Downvote is the mirror of Upvote.
func (s *EngagementService) Downvote(ctx context.Context, t repository.VoteTarget, id, userID uint) (models.VoteCounts, error) {
	return s.vote(ctx, t, id, userID, models.VoteDown)
}

func (s *EngagementService) vote(ctx context.Context, t repository.VoteTarget, id, userID uint, dir models.VoteDirection) (counts models.VoteCounts, err error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "engagement", "Vote",
		attribute.String("entity", t.Entity),
		attribute.Int64("entity_id", int64(id)),
		attribute.String("direction", string(dir)),
	)
	defer func() { observability.EndSpan(span, err) }()

	authorID, err := s.votes.TargetAuthor(ctx, t, id)
	if err != nil {
		return counts, err
	}

	applied, err := s.votes.Vote(ctx, t, id, userID, dir, utcNow())
	if err != nil {
		return counts, err
	}
	if !applied {
		observability.RecordVote(t.Entity, string(dir), observability.VoteRejected)
		return counts, models.NewAlreadyVotedError(t.Entity, dir)
	}
	observability.RecordVote(t.Entity, string(dir), observability.VoteApplied)

	counts, err = s.votes.Counts(ctx, t, id)
	if err != nil {
		return counts, err
	}
	s.afterVote(ctx, t, id, authorID, counts)

	if dir == models.VoteUp && t.Entity == repository.PostVotes.Entity && authorID != userID {
		sender := userID
		s.notifications.notifyQuietly(ctx, &models.Notification{
			RecipientID:   authorID,
			SenderID:      &sender,
			Type:          models.NotifyPostUpvote,
			Title:         "Your post was upvoted",
			Message:       fmt.Sprintf("Your post now has %d upvotes", counts.Upvotes),
			RelatedEntity: models.RelatedToPost(id),
			Priority:      models.PriorityLow,
		})
	}
	return counts, nil
}

// RemoveVote clears the user's vote on the target. Removing a vote that does
// not exist succeeds.
func (s *EngagementService) RemoveVote(ctx context.Context, t repository.VoteTarget, id, userID uint) (counts models.VoteCounts, err error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "engagement", "RemoveVote",
		attribute.String("entity", t.Entity),
		attribute.Int64("entity_id", int64(id)),
	)
	defer func() { observability.EndSpan(span, err) }()

	authorID, err := s.votes.TargetAuthor(ctx, t, id)
	if err != nil {
		return counts, err
	}
	if err = s.votes.RemoveVote(ctx, t, id, userID); err != nil {
		return counts, err
	}
	observability.RecordVote(t.Entity, "none", observability.VoteRemoved)

	counts, err = s.votes.Counts(ctx, t, id)
	if err != nil {
		return counts, err
	}
	s.afterVote(ctx, t, id, authorID, counts)
	return counts, nil
}

func (s *EngagementService) afterVote(ctx context.Context, t repository.VoteTarget, id, authorID uint, counts models.VoteCounts) {
	cache.InvalidateUserStats(ctx, authorID)
	eventType := EventPostVoteUpdated
	if t.Entity == repository.CommentVotes.Entity {
		eventType = EventCommentVoteUpdated
	}
	s.publisher.PublishBroadcast(ctx, eventType, VoteUpdate{Entity: t.Entity, ID: id, VoteCounts: counts})
}

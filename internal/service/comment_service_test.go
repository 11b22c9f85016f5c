package service

import (
	"context"
	"strings"
	"testing"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCommentService(s *stack, isAdmin AdminCheck) *CommentService {
	return NewCommentService(s.comments, s.posts, s.notifications, s.pub, isAdmin)
}

func TestCommentService_CreateComment_Validation(t *testing.T) {
	s := newStack(t)
	author := createUser(t, s.db)
	post := s.createPost(t, author, "Validation thread")
	svc := newCommentService(s, nil)
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "   "})
	assertValidationError(t, err)

	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: strings.Repeat("x", 1001)})
	assertValidationError(t, err)

	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID + 100, Content: "Hello"})
	assertNotFoundError(t, err)
}

func TestCommentService_CreateComment_NotifiesPostAuthor(t *testing.T) {
	s := newStack(t)
	author := createUser(t, s.db)
	commenter := createUser(t, s.db)
	post := s.createPost(t, author, "Which IDE do you use?")
	svc := newCommentService(s, nil)

	comment, err := svc.CreateComment(context.Background(), CreateCommentInput{
		UserID: commenter.ID, PostID: post.ID, Content: "  Neovim, obviously  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Neovim, obviously", comment.Content)
	assert.False(t, comment.IsReply())

	got, err := s.posts.GetByID(context.Background(), post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommentsCount)

	notes := notificationsFor(t, s.db, author.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyPostComment, notes[0].Type)
	assert.Equal(t, models.RelatedToComment(comment.ID), notes[0].RelatedEntity)
	s.pub.AssertCalled(t, "PublishBroadcast", EventCommentCreated, mock.Anything)
	s.pub.AssertCalled(t, "PublishUser", author.ID, EventNotification, mock.Anything)
}

func TestCommentService_CommentingOnOwnPostIsSilent(t *testing.T) {
	s := newStack(t)
	author := createUser(t, s.db)
	post := s.createPost(t, author, "Talking to myself")
	svc := newCommentService(s, nil)

	_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "Bump"})
	require.NoError(t, err)
	assert.Empty(t, notificationsFor(t, s.db, author.ID))
}

func TestCommentService_Replies(t *testing.T) {
	s := newStack(t)
	author := createUser(t, s.db)
	first := createUser(t, s.db)
	second := createUser(t, s.db)
	post := s.createPost(t, author, "Study group for DSA")
	other := s.createPost(t, author, "A different thread")
	svc := newCommentService(s, nil)
	ctx := context.Background()

	top, err := svc.CreateComment(ctx, CreateCommentInput{UserID: first.ID, PostID: post.ID, Content: "Count me in"})
	require.NoError(t, err)

	reply, err := svc.CreateComment(ctx, CreateCommentInput{UserID: second.ID, PostID: post.ID, ParentID: &top.ID, Content: "Me too"})
	require.NoError(t, err)
	assert.True(t, reply.IsReply())

	// The reply notifies the parent comment's author, not the post author.
	notes := notificationsFor(t, s.db, first.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyPostComment, notes[0].Type)

	t.Run("reply to a reply", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: first.ID, PostID: post.ID, ParentID: &reply.ID, Content: "Nested"})
		assert.Equal(t, "Cannot reply to a reply", assertAppError(t, err, models.CodeValidation).Message)
	})

	t.Run("parent on another post", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: first.ID, PostID: other.ID, ParentID: &top.ID, Content: "Wrong thread"})
		assertValidationError(t, err)
	})

	t.Run("listing separates levels", func(t *testing.T) {
		p := repository.Paging{Page: 1, Limit: CommentPageLimit}
		topLevel, err := svc.ListComments(ctx, post.ID, p)
		require.NoError(t, err)
		require.Len(t, topLevel.Items, 1)
		assert.Equal(t, top.ID, topLevel.Items[0].ID)

		replies, err := svc.ListReplies(ctx, top.ID, p)
		require.NoError(t, err)
		require.Len(t, replies.Items, 1)
		assert.Equal(t, reply.ID, replies.Items[0].ID)
	})
}

func TestCommentService_UpdateAndDelete_Ownership(t *testing.T) {
	s := newStack(t)
	author := createUser(t, s.db)
	stranger := createUser(t, s.db)
	admin := createUser(t, s.db)
	post := s.createPost(t, author, "Edits and deletes")
	svc := newCommentService(s, admins(admin.ID))
	ctx := context.Background()

	comment, err := svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "First draft"})
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, UpdateCommentInput{UserID: stranger.ID, CommentID: comment.ID, Content: "Hijacked"})
	assertForbiddenError(t, err)

	updated, err := svc.UpdateComment(ctx, UpdateCommentInput{UserID: author.ID, CommentID: comment.ID, Content: "Second draft"})
	require.NoError(t, err)
	assert.Equal(t, "Second draft", updated.Content)
	assert.True(t, updated.IsEdited)

	assertForbiddenError(t, svc.DeleteComment(ctx, DeleteCommentInput{UserID: stranger.ID, CommentID: comment.ID}))
	require.NoError(t, svc.DeleteComment(ctx, DeleteCommentInput{UserID: admin.ID, CommentID: comment.ID}))

	_, err = svc.UpdateComment(ctx, UpdateCommentInput{UserID: author.ID, CommentID: comment.ID, Content: "Too late"})
	assertNotFoundError(t, err)
}

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

func TestNotificationService_Notify_Validation(t *testing.T) {
	s := newStack(t)
	user := createUser(t, s.db)
	ctx := context.Background()

	tests := []struct {
		name string
		n    models.Notification
	}{
		{name: "no recipient", n: models.Notification{Type: models.NotifyPostComment, Title: "t", Message: "m"}},
		{name: "unknown type", n: models.Notification{RecipientID: user.ID, Type: "poke", Title: "t", Message: "m"}},
		{name: "empty title", n: models.Notification{RecipientID: user.ID, Type: models.NotifyPostComment, Message: "m"}},
		{name: "long message", n: models.Notification{RecipientID: user.ID, Type: models.NotifyPostComment, Title: "t", Message: strings.Repeat("m", 501)}},
		{name: "related without id", n: models.Notification{RecipientID: user.ID, Type: models.NotifyPostComment, Title: "t", Message: "m",
			RelatedEntity: models.RelatedEntity{Kind: models.RelatedPost}}},
		{name: "bad priority", n: models.Notification{RecipientID: user.ID, Type: models.NotifyPostComment, Title: "t", Message: "m", Priority: "asap"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.n
			assertValidationError(t, s.notifications.Notify(ctx, &n))
		})
	}
	assert.Empty(t, notificationsFor(t, s.db, user.ID))
}

func TestNotificationService_Lifecycle(t *testing.T) {
	s := newStack(t)
	user := createUser(t, s.db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.notifications.Notify(ctx, &models.Notification{
			RecipientID:   user.ID,
			Type:          models.NotifySystemAnnouncement,
			Title:         "Welcome",
			Message:       "Orientation starts Monday",
			RelatedEntity: models.RelatedToSystem(),
		}))
	}
	s.pub.AssertNumberOfCalls(t, "PublishUser", 3)
	s.pub.AssertCalled(t, "PublishUser", user.ID, EventNotification, mock.Anything)

	unread, err := s.notifications.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	page, err := s.notifications.List(ctx, user.ID, "", repository.Paging{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, models.PriorityMedium, page.Items[0].Priority)

	n, err := s.notifications.MarkRead(ctx, user.ID, []uint{page.Items[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.notifications.Archive(ctx, user.ID, page.Items[1].ID))

	unread, err = s.notifications.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	all, err := s.notifications.List(ctx, user.ID, repository.StatusAll, repository.Paging{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)

	n, err = s.notifications.MarkRead(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.notifications.List(ctx, user.ID, "starred", repository.Paging{Page: 1, Limit: 20})
	assertValidationError(t, err)
}

func TestNotificationService_OtherRecipientsCannotArchive(t *testing.T) {
	s := newStack(t)
	owner := createUser(t, s.db)
	other := createUser(t, s.db)
	ctx := context.Background()

	n := &models.Notification{RecipientID: owner.ID, Type: models.NotifyBadgeEarned, Title: "Badge", Message: "You earned Contributor"}
	require.NoError(t, s.notifications.Notify(ctx, n))

	assertNotFoundError(t, s.notifications.Archive(ctx, other.ID, n.ID))
}

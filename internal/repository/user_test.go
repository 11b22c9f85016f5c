package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"collegeconnect/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		expectedName string
		expectedCode string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "name", "email"}).
					AddRow(1, "Asha", "asha@example.edu")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedName: "Asha",
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode: models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)
			if tt.expectedCode != "" {
				assert.True(t, models.IsCode(err, tt.expectedCode))
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedName, user.Name)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "IIT Bombay")
	dup := &models.User{Name: "Other", Email: u.Email, PasswordHash: "x", College: "IIT Bombay"}

	err := repo.Create(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "NIT Trichy")

	found, err := repo.GetByEmail(ctx, "  "+u.Email+" ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, "x", found.PasswordHash)

	missing, err := repo.GetByEmail(ctx, "nobody@example.edu")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := createUser(t, db, "IIT Delhi")
	a.Skills = []string{"Go", "Postgres"}
	require.NoError(t, repo.Update(ctx, a))
	b := createUser(t, db, "BITS Pilani")
	b.Skills = []string{"React"}
	require.NoError(t, repo.Update(ctx, b))
	c := createUser(t, db, "iit delhi")
	require.NoError(t, repo.Deactivate(ctx, c.ID))

	users, total, err := repo.List(ctx, UserFilter{College: "IIT"}, Paging{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, a.ID, users[0].ID)

	users, total, err = repo.List(ctx, UserFilter{Skills: []string{"react", "rust"}}, Paging{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b.ID, users[0].ID)

	_, total, err = repo.List(ctx, UserFilter{Search: "100%"}, Paging{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUserRepository_Deactivate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "VIT")
	require.NoError(t, repo.Deactivate(ctx, u.ID))

	got, err := repo.GetWithCredentials(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.True(t, models.IsCode(repo.Deactivate(ctx, 9999), models.CodeNotFound))
}

func TestUserRepository_Stats(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	votes := NewVoteRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	author := createUser(t, db, "IIIT Hyderabad")
	v1 := createUser(t, db, "IIIT Hyderabad")
	v2 := createUser(t, db, "IIIT Hyderabad")
	v3 := createUser(t, db, "IIIT Hyderabad")

	post := createPost(t, db, author, "Intro to Go generics")
	deleted := createPost(t, db, author, "Deleted thoughts")
	require.NoError(t, NewPostRepository(db).SetStatus(ctx, deleted.ID, models.PostStatusDeleted))

	for _, v := range []*models.User{v1, v2} {
		_, err := votes.Vote(ctx, PostVotes, post.ID, v.ID, models.VoteUp, now)
		require.NoError(t, err)
	}
	_, err := votes.Vote(ctx, PostVotes, post.ID, v3.ID, models.VoteDown, now)
	require.NoError(t, err)

	stats, err := users.Stats(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PostsCount)
	assert.Equal(t, int64(1), stats.Reputation)

	_, err = users.Stats(ctx, 4242)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

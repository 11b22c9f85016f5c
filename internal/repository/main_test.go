package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"collegeconnect/internal/database"
	"collegeconnect/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB returns a migrated in-memory SQLite database. One connection keeps
// every query on the same in-memory schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=off"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// setupMockDB returns a postgres-dialect gorm DB backed by sqlmock, for
// asserting the exact SQL a repository sends.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, college string) *models.User {
	t.Helper()
	userSeq++
	u := &models.User{
		Name:         fmt.Sprintf("Student %d", userSeq),
		Email:        fmt.Sprintf("student%d@example.edu", userSeq),
		PasswordHash: "x",
		Role:         models.RoleStudent,
		College:      college,
		IsActive:     true,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, title string, tags ...string) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:    title,
		Content:  "Some longer content for " + title,
		AuthorID: author.ID,
		Category: models.CategoryTech,
		Status:   models.PostStatusPublished,
		Tags:     tagRows(tags),
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func createEvent(t *testing.T, db *gorm.DB, organizer *models.User, start time.Time, max int64) *models.Event {
	t.Helper()
	e := &models.Event{
		Name:          "Hack Night",
		Description:   "An evening of building",
		Type:          models.EventHackathon,
		OrganizerID:   organizer.ID,
		OrganizerName: organizer.Name,
		StartDate:     start,
		EndDate:       start.Add(24 * time.Hour),
		Location:      models.EventLocation{Type: "offline", City: "Pune"},
		Registration:  models.EventRegistration{IsRequired: true, IsFree: true, MaxParticipants: max},
		Status:        models.EventStatusPublished,
	}
	require.NoError(t, NewEventRepository(db).Create(context.Background(), e))
	return e
}

func createTeam(t *testing.T, db *gorm.DB, leader *models.User, event *models.Event, required, max int64) *models.Team {
	t.Helper()
	team := &models.Team{
		Name:        "Byte Builders",
		Description: "We build things",
		LeaderID:    leader.ID,
		EventID:     event.ID,
		TeamSize:    models.TeamSize{Required: required, Max: max},
		Status:      models.TeamStatusForming,
		Visibility:  models.VisibilityPublic,
	}
	require.NoError(t, NewTeamRepository(db).Create(context.Background(), team, []models.RequiredSkill{
		{Skill: "Go", Level: models.SkillIntermediate, IsRequired: true},
	}))
	return team
}

package database

import "collegeconnect/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Parents come before children so AutoMigrate can create foreign keys.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.PostTag{},
		&models.PostVote{},
		&models.Comment{},
		&models.CommentEdit{},
		&models.CommentVote{},
		&models.Event{},
		&models.EventParticipant{},
		&models.Team{},
		&models.Project{},
		&models.ProjectMilestone{},
		&models.Member{},
		&models.JoinRequest{},
		&models.RequiredSkill{},
		&models.Notification{},
	}
}

// postMigrateStatements are indexes GORM tags cannot express. They run after
// AutoMigrate and are valid on both PostgreSQL and SQLite.
var postMigrateStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_join_requests_one_pending
		ON join_requests (entity_kind, entity_id, user_id) WHERE status = 'pending'`,
}

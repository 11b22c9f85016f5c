// Package seed builds demo and fixture data for CollegeConnect. Entities go
// through the repositories so counters and rosters stay consistent.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options tune the factory.
type Options struct {
	// SkipBcrypt hashes with the minimum cost instead of the default.
	SkipBcrypt bool
	// MaxDays bounds how far back content timestamps are spread.
	MaxDays int
	// RandSeed makes output reproducible. Zero picks a random seed.
	RandSeed int64
}

var skillPool = []string{
	"Go", "Python", "React", "TypeScript", "Figma", "Kubernetes", "PostgreSQL", "Rust",
	"Machine Learning", "Flutter", "Solidity", "Public Speaking", "Data Analysis", "Docker",
}

var tagPool = []string{
	"go", "react", "ai", "interview", "dsa", "hackathon", "internship", "opensource",
	"ui", "startup", "cloud", "resume", "placements", "webdev",
}

var courses = []string{"B.Tech CSE", "B.Tech ECE", "B.Des", "MBA", "M.Tech AI", "BCA"}

// Factory builds and persists domain entities with fake content.
type Factory struct {
	opts     Options
	fake     *gofakeit.Faker
	hash     string
	seq      int
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	votes    repository.VoteRepository
	events   repository.EventRepository
	teams    repository.TeamRepository
	projects repository.ProjectRepository
	members  repository.MembershipRepository
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{
		opts:     opts,
		fake:     gofakeit.New(opts.RandSeed),
		hash:     string(hash),
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		votes:    repository.NewVoteRepository(db),
		events:   repository.NewEventRepository(db),
		teams:    repository.NewTeamRepository(db),
		projects: repository.NewProjectRepository(db),
		members:  repository.NewMembershipRepository(db),
	}, nil
}

// pastTime returns an instant within the last MaxDays.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.fake.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back)
}

func (f *Factory) pick(pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	shuffled := append([]string(nil), pool...)
	f.fake.ShuffleStrings(shuffled)
	return shuffled[:n]
}

// BuildUser returns an unsaved user at college.
func (f *Factory) BuildUser(college string) *models.User {
	f.seq++
	first := f.fake.FirstName()
	last := f.fake.LastName()
	role := models.RoleStudent
	if f.fake.Number(1, 10) == 1 {
		role = models.RoleFaculty
	}
	return &models.User{
		Name:         first + " " + last,
		Email:        fmt.Sprintf("%s.%s%d@example.edu", strings.ToLower(first), strings.ToLower(last), f.seq),
		PasswordHash: f.hash,
		Role:         role,
		College:      college,
		Course:       f.fake.RandomString(courses),
		Year:         fmt.Sprintf("%d", f.fake.Number(1, 4)),
		Semester:     f.fake.Number(1, 8),
		Bio:          f.fake.Sentence(12),
		Skills:       f.pick(skillPool, f.fake.Number(1, 4)),
		Interests:    []string{f.fake.Hobby(), f.fake.Hobby()},
		SocialLinks: models.SocialLinks{
			GitHub: "https://github.com/" + strings.ToLower(first) + fmt.Sprint(f.seq),
		},
		IsVerified: f.fake.Bool(),
		IsActive:   true,
		Preferences: models.UserPreferences{
			EmailNotifications: true,
			PushNotifications:  true,
			ProfileVisibility:  models.VisibilityPublic,
		},
	}
}

// CreateUser persists a user. Overrides run before the insert.
func (f *Factory) CreateUser(ctx context.Context, college string, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(college)
	for _, o := range overrides {
		o(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved published post by author.
func (f *Factory) BuildPost(author *models.User) *models.Post {
	category := models.PostCategories[f.fake.Number(0, len(models.PostCategories)-1)]
	post := &models.Post{
		Title:      strings.TrimSuffix(f.fake.Sentence(f.fake.Number(4, 10)), "."),
		Content:    f.fake.Paragraph(f.fake.Number(1, 3), 4, 12, "\n\n"),
		AuthorID:   author.ID,
		Category:   category,
		Status:     models.PostStatusPublished,
		Visibility: models.VisibilityPublic,
		IsQuestion: category == models.CategoryQuestions,
		CreatedAt:  f.pastTime(),
	}
	for _, t := range f.pick(tagPool, f.fake.Number(0, 3)) {
		post.Tags = append(post.Tags, models.PostTag{Tag: t})
	}
	return post
}

func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author)
	for _, o := range overrides {
		o(post)
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment adds a comment, or a reply when parent is set.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		Content:  f.fake.Sentence(f.fake.Number(5, 25)),
		AuthorID: author.ID,
		PostID:   post.ID,
		Status:   models.CommentStatusActive,
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Vote casts a mostly positive vote on a post or comment.
func (f *Factory) Vote(ctx context.Context, target repository.VoteTarget, id, userID uint) error {
	dir := models.VoteUp
	if f.fake.Number(1, 5) == 1 {
		dir = models.VoteDown
	}
	_, err := f.votes.Vote(ctx, target, id, userID, dir, time.Now().UTC())
	return err
}

// CreateEvent creates a published event starting daysAhead from now.
// Negative values produce events that already ended.
func (f *Factory) CreateEvent(ctx context.Context, organizer *models.User, daysAhead int) (*models.Event, error) {
	start := time.Now().UTC().Truncate(time.Hour).Add(time.Duration(daysAhead) * 24 * time.Hour)
	status := models.EventStatusPublished
	if daysAhead < 0 {
		status = models.EventStatusCompleted
	}
	capacity := int64(0)
	if f.fake.Bool() {
		capacity = int64(f.fake.Number(20, 200))
	}
	eventType := models.EventTypes[f.fake.Number(0, len(models.EventTypes)-1)]
	event := &models.Event{
		Name:          fmt.Sprintf("%s %s", f.fake.Company(), strings.ReplaceAll(string(eventType), "-", " ")),
		Description:   f.fake.Paragraph(1, 3, 12, " "),
		Type:          eventType,
		OrganizerID:   organizer.ID,
		OrganizerName: organizer.Name,
		OrganizerType: f.fake.RandomString(models.OrganizerTypes),
		StartDate:     start,
		EndDate:       start.Add(time.Duration(f.fake.Number(2, 48)) * time.Hour),
		Location: models.EventLocation{
			Type:  "offline",
			Venue: f.fake.Company() + " Auditorium",
			City:  f.fake.City(),
		},
		Registration: models.EventRegistration{
			IsRequired:      true,
			IsFree:          true,
			MaxParticipants: capacity,
		},
		Status: status,
		Tags:   f.pick(tagPool, 2),
	}
	if err := f.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Register signs userID up for an event. Full events are skipped silently.
func (f *Factory) Register(ctx context.Context, eventID, userID uint, teamID *uint) error {
	_, err := f.events.Register(ctx, eventID, userID, teamID, time.Now().UTC())
	if isExpected(err) {
		return nil
	}
	return err
}

func (f *Factory) requiredSkills() []models.RequiredSkill {
	levels := []models.SkillLevel{models.SkillBeginner, models.SkillIntermediate, models.SkillAdvanced}
	var out []models.RequiredSkill
	for _, s := range f.pick(tagPool, f.fake.Number(1, 3)) {
		out = append(out, models.RequiredSkill{
			Skill:      s,
			Level:      levels[f.fake.Number(0, len(levels)-1)],
			IsRequired: f.fake.Bool(),
		})
	}
	return out
}

// CreateTeam forms a team for event led by leader.
func (f *Factory) CreateTeam(ctx context.Context, leader *models.User, event *models.Event) (*models.Team, error) {
	required := int64(f.fake.Number(2, 4))
	team := &models.Team{
		Name:        f.fake.AppName(),
		Description: f.fake.HackerPhrase(),
		LeaderID:    leader.ID,
		EventID:     event.ID,
		TeamSize:    models.TeamSize{Required: required, Max: required + int64(f.fake.Number(0, 2))},
		Status:      models.TeamStatusForming,
		Visibility:  models.VisibilityPublic,
		Tags:        f.pick(tagPool, 2),
	}
	if err := f.teams.Create(ctx, team, f.requiredSkills()); err != nil {
		return nil, err
	}
	return team, nil
}

// CreateProject starts a project owned by owner.
func (f *Factory) CreateProject(ctx context.Context, owner *models.User) (*models.Project, error) {
	project := &models.Project{
		Title:       f.fake.AppName() + " " + f.fake.RandomString([]string{"Tracker", "Hub", "Bot", "Portal", "Engine"}),
		Description: f.fake.Paragraph(1, 2, 14, " "),
		OwnerID:     owner.ID,
		Type:        f.fake.RandomString(models.ProjectTypes),
		Domain:      f.fake.RandomString(models.ProjectDomains),
		Status:      models.ProjectStatusPlanning,
		Visibility:  models.VisibilityPublic,
		TeamSize:    models.TeamSize{Required: int64(f.fake.Number(2, 6))},
		Links:       models.ProjectLinks{Repository: f.fake.URL()},
		Tags:        f.pick(tagPool, 3),
	}
	if err := f.projects.Create(ctx, project, f.requiredSkills()); err != nil {
		return nil, err
	}
	return project, nil
}

// AddMilestones appends n milestones and completes a random prefix of them.
func (f *Factory) AddMilestones(ctx context.Context, project *models.Project, n int) error {
	done := f.fake.Number(0, n)
	for i := 0; i < n; i++ {
		due := time.Now().UTC().Add(time.Duration(7*(i+1)) * 24 * time.Hour)
		m := &models.ProjectMilestone{
			ProjectID: project.ID,
			Title:     fmt.Sprintf("Phase %d: %s", i+1, f.fake.Verb()),
			DueDate:   &due,
		}
		if err := f.projects.AddMilestone(ctx, m); err != nil {
			return err
		}
		if i < done {
			if _, err := f.projects.CompleteMilestone(ctx, project.ID, m.ID, time.Now().UTC()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Join adds userID to a roster. Full or duplicate rosters are skipped.
func (f *Factory) Join(ctx context.Context, kind models.EntityKind, id, userID uint) error {
	_, err := f.members.AddMember(ctx, kind, id, userID, models.RoleMember, f.pick(skillPool, 2), time.Now().UTC())
	if isExpected(err) {
		return nil
	}
	return err
}

// RequestToJoin files a pending join request.
func (f *Factory) RequestToJoin(ctx context.Context, kind models.EntityKind, id, userID uint) error {
	err := f.members.CreateJoinRequest(ctx, &models.JoinRequest{
		EntityKind:  kind,
		EntityID:    id,
		UserID:      userID,
		Message:     f.fake.Sentence(10),
		Skills:      f.pick(skillPool, 2),
		Status:      models.JoinRequestPending,
		RequestedAt: time.Now().UTC(),
	})
	if isExpected(err) {
		return nil
	}
	return err
}

// isExpected reports domain rejections that seeding tolerates, such as a
// full roster or a duplicate registration.
func isExpected(err error) bool {
	if err == nil {
		return true
	}
	return models.IsCode(err, models.CodeConflict) || models.IsCode(err, models.CodeValidation)
}

package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"collegeconnect/internal/database"
	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"

	"gorm.io/gorm"
)

// DemoEmail is the fixed account every preset creates first.
const DemoEmail = "demo@example.edu"

// Summary counts what Apply created.
type Summary struct {
	Users         int
	Posts         int
	Comments      int
	Votes         int
	Events        int
	Teams         int
	Projects      int
	Registrations int
}

// Seeder writes presets into a database.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: f}, nil
}

// Factory exposes the underlying entity factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll empties every table the application owns.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	tables, err := database.TableNames(s.db)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		sql := "TRUNCATE TABLE "
		for i, t := range tables {
			if i > 0 {
				sql += ", "
			}
			sql += t
		}
		return db.Exec(sql + " RESTART IDENTITY CASCADE").Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for i := len(tables) - 1; i >= 0; i-- {
			if err := tx.Exec("DELETE FROM " + tables[i]).Error; err != nil {
				return fmt.Errorf("clear %s: %w", tables[i], err)
			}
		}
		return nil
	})
}

// ApplyPreset looks up name in presets and applies it.
func (s *Seeder) ApplyPreset(ctx context.Context, presets map[string]Preset, name string) (Summary, error) {
	p, ok := presets[name]
	if !ok {
		return Summary{}, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames(presets))
	}
	return s.Apply(ctx, p)
}

// Apply seeds one preset's worth of data.
func (s *Seeder) Apply(ctx context.Context, p Preset) (Summary, error) {
	var sum Summary
	if err := p.normalize(); err != nil {
		return sum, err
	}
	log.Printf("🌱 Seeding preset %q: %d users, %d posts, %d events, %d projects",
		p.Name, p.Users, p.Posts, p.Events, p.Projects)
	f := s.factory

	users := make([]*models.User, 0, p.Users)
	for i := 0; i < p.Users; i++ {
		college := p.Colleges[i%len(p.Colleges)]
		var overrides []func(*models.User)
		if i == 0 {
			overrides = append(overrides, func(u *models.User) {
				u.Name = "Demo Student"
				u.Email = DemoEmail
				u.Role = models.RoleStudent
				u.IsVerified = true
			})
		}
		u, err := f.CreateUser(ctx, college, overrides...)
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)

	other := func(not uint) *models.User {
		for {
			u := users[f.fake.Number(0, len(users)-1)]
			if u.ID != not {
				return u
			}
		}
	}

	for i := 0; i < p.Posts; i++ {
		author := users[f.fake.Number(0, len(users)-1)]
		post, err := f.CreatePost(ctx, author)
		if err != nil {
			return sum, fmt.Errorf("create post: %w", err)
		}
		sum.Posts++

		var topLevel []*models.Comment
		comments := f.fake.Number(0, p.CommentsPerPost)
		for c := 0; c < comments; c++ {
			var parent *models.Comment
			if len(topLevel) > 0 && f.fake.Float64() < p.ReplyRatio {
				parent = topLevel[f.fake.Number(0, len(topLevel)-1)]
			}
			comment, err := f.CreateComment(ctx, other(0), post, parent)
			if err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			if parent == nil {
				topLevel = append(topLevel, comment)
			}
			sum.Comments++
		}

		for _, voter := range users {
			if voter.ID == author.ID || f.fake.Float64() >= p.VoteRatio {
				continue
			}
			if err := f.Vote(ctx, repository.PostVotes, post.ID, voter.ID); err != nil {
				return sum, fmt.Errorf("vote: %w", err)
			}
			sum.Votes++
		}
	}
	log.Printf("✓ %d posts, %d comments, %d votes created", sum.Posts, sum.Comments, sum.Votes)

	for i := 0; i < p.Events; i++ {
		organizer := users[f.fake.Number(0, len(users)-1)]
		daysAhead := f.fake.Number(3, 60)
		if i%4 == 3 {
			daysAhead = -f.fake.Number(10, 60)
		}
		event, err := f.CreateEvent(ctx, organizer, daysAhead)
		if err != nil {
			return sum, fmt.Errorf("create event: %w", err)
		}
		sum.Events++
		if daysAhead < 0 {
			continue
		}

		for t := 0; t < p.TeamsPerEvent; t++ {
			leader := other(organizer.ID)
			team, err := f.CreateTeam(ctx, leader, event)
			if err != nil {
				return sum, fmt.Errorf("create team: %w", err)
			}
			sum.Teams++
			if err := f.Join(ctx, models.KindTeam, team.ID, other(leader.ID).ID); err != nil {
				return sum, fmt.Errorf("join team: %w", err)
			}
			if err := f.RequestToJoin(ctx, models.KindTeam, team.ID, other(leader.ID).ID); err != nil {
				return sum, fmt.Errorf("team join request: %w", err)
			}
			teamID := team.ID
			if err := f.Register(ctx, event.ID, leader.ID, &teamID); err != nil {
				return sum, fmt.Errorf("register team leader: %w", err)
			}
			sum.Registrations++
		}
		for r := 0; r < len(users)/3; r++ {
			if err := f.Register(ctx, event.ID, other(organizer.ID).ID, nil); err != nil {
				return sum, fmt.Errorf("register: %w", err)
			}
			sum.Registrations++
		}
	}
	log.Printf("✓ %d events, %d teams created", sum.Events, sum.Teams)

	for i := 0; i < p.Projects; i++ {
		owner := users[f.fake.Number(0, len(users)-1)]
		project, err := f.CreateProject(ctx, owner)
		if err != nil {
			return sum, fmt.Errorf("create project: %w", err)
		}
		sum.Projects++
		if err := f.AddMilestones(ctx, project, p.Milestones); err != nil {
			return sum, fmt.Errorf("add milestones: %w", err)
		}
		if err := f.Join(ctx, models.KindProject, project.ID, other(owner.ID).ID); err != nil {
			return sum, fmt.Errorf("join project: %w", err)
		}
		if err := f.RequestToJoin(ctx, models.KindProject, project.ID, other(owner.ID).ID); err != nil {
			return sum, fmt.Errorf("project join request: %w", err)
		}
	}
	log.Printf("✓ %d projects created", sum.Projects)

	log.Println("🎉 Database seeding completed successfully!")
	return sum, nil
}

// Run clears the database when clean is set, then applies the named preset.
func Run(ctx context.Context, db *gorm.DB, presets map[string]Preset, name string, clean bool, opts Options) (Summary, error) {
	start := time.Now()
	s, err := NewSeeder(db, opts)
	if err != nil {
		return Summary{}, err
	}
	if clean {
		if err := s.ClearAll(ctx); err != nil {
			return Summary{}, fmt.Errorf("clear data: %w", err)
		}
	}
	sum, err := s.ApplyPreset(ctx, presets, name)
	if err != nil {
		return sum, err
	}
	log.Printf("seeded in %s", time.Since(start).Round(time.Millisecond))
	return sum, nil
}

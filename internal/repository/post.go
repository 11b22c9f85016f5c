package repository

import (
	"context"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Post sort modes the store can order by itself. Trending is computed by the
// listing service over ListCandidates.
const (
	SortRecent  = "recent"
	SortPopular = "popular"
)

// StatusAll disables the default published-only status filter.
const StatusAll = "all"

// PostFilter narrows post listings.
type PostFilter struct {
	Status   string
	Category models.PostCategory
	Tags     []string
	AuthorID uint
	College  string
	Search   string
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID returns the post with vote tallies whatever its status.
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post, tags []string) error
	SetStatus(ctx context.Context, id uint, status models.PostStatus) error
	IncrementViews(ctx context.Context, id uint) error
	List(ctx context.Context, f PostFilter, sort string, p Paging, viewerID uint) ([]models.Post, int64, error)
	// ListCandidates returns every post matching f, unpaged.
	ListCandidates(ctx context.Context, f PostFilter, viewerID uint) ([]models.Post, error)
}

type postRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:      db,
		log:     observability.NewRepoLogger("posts"),
		metrics: observability.NewDatabaseMetrics("posts"),
	}
}

func tagRows(tags []string) []models.PostTag {
	rows := make([]models.PostTag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, models.PostTag{Tag: t})
	}
	return rows
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("create")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"post_id": post.ID, "author_id": post.AuthorID})
	return nil
}

// withVotes selects the vote tallies and, for a signed-in viewer, their own vote.
func withVotes(table, voteTable, fk string, viewerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		sel := table + ".*, " +
			"(SELECT COUNT(*) FROM " + voteTable + " v WHERE v." + fk + " = " + table + ".id AND v.direction = 'up') AS upvotes, " +
			"(SELECT COUNT(*) FROM " + voteTable + " v WHERE v." + fk + " = " + table + ".id AND v.direction = 'down') AS downvotes"
		if table != "posts" {
			return db.Select(sel)
		}
		return db.Select(sel+", COALESCE((SELECT v.direction FROM post_votes v WHERE v.post_id = posts.id AND v.user_id = ?), '') AS my_vote", viewerID)
	}
}

func postVotes(viewerID uint) func(*gorm.DB) *gorm.DB {
	return withVotes("posts", "post_votes", "post_id", viewerID)
}

// tagsInOrder keeps tags in the order the author wrote them.
func tagsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("post_tags.id ASC")
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	defer r.metrics.TrackQuery("get")()
	var post models.Post
	err := readDB(r.db).WithContext(ctx).
		Scopes(postVotes(viewerID)).
		Preload("Author").
		Preload("Tags", tagsInOrder).
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

// Update writes the editable fields. A non-nil tags replaces the tag set.
func (r *postRepository) Update(ctx context.Context, post *models.Post, tags []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(post).
			Select("title", "content", "category", "status", "visibility", "is_pinned", "is_question", "accepted_answer_id", "updated_at").
			Omit(clause.Associations).
			Updates(post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", post.ID)
		}
		if tags == nil {
			return nil
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			post.Tags = nil
			return nil
		}
		rows := tagRows(tags)
		for i := range rows {
			rows[i].PostID = post.ID
		}
		post.Tags = rows
		return tx.Create(&rows).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return internal(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"post_id": post.ID})
	return nil
}

func (r *postRepository) SetStatus(ctx context.Context, id uint, status models.PostStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	if status == models.PostStatusDeleted {
		r.log.LogDelete(ctx, map[string]interface{}{"post_id": id})
	}
	return nil
}

func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	return internal(err)
}

func postFilterScope(f PostFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch f.Status {
		case StatusAll:
		case "":
			db = db.Where("posts.status = ?", models.PostStatusPublished)
		default:
			db = db.Where("posts.status = ?", f.Status)
		}
		if f.Category != "" {
			db = db.Where("posts.category = ?", f.Category)
		}
		if len(f.Tags) > 0 {
			db = db.Where("posts.id IN (SELECT post_id FROM post_tags WHERE tag IN ?)", f.Tags)
		}
		if f.AuthorID != 0 {
			db = db.Where("posts.author_id = ?", f.AuthorID)
		}
		if f.College != "" {
			db = db.Where("posts.author_id IN (SELECT id FROM users WHERE "+ilike("college")+")", containsPattern(f.College))
		}
		if f.Search != "" {
			if isPostgres(db) {
				db = db.Where("to_tsvector('english', posts.title || ' ' || posts.content) @@ plainto_tsquery('english', ?)", f.Search)
			} else {
				pattern := containsPattern(f.Search)
				db = db.Where(ilike("posts.title")+" OR "+ilike("posts.content"), pattern, pattern)
			}
		}
		return db
	}
}

func postOrder(sort string) string {
	if sort == SortPopular {
		return "upvotes DESC, posts.comments_count DESC, posts.created_at DESC, posts.id DESC"
	}
	return "posts.created_at DESC, posts.id DESC"
}

func (r *postRepository) List(ctx context.Context, f PostFilter, sort string, p Paging, viewerID uint) ([]models.Post, int64, error) {
	defer r.metrics.TrackQuery("list")()
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Post{}).Scopes(postFilterScope(f)).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	err := db.Scopes(postFilterScope(f), postVotes(viewerID)).
		Preload("Author").
		Preload("Tags", tagsInOrder).
		Order(postOrder(sort)).
		Scopes(p.apply).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

func (r *postRepository) ListCandidates(ctx context.Context, f PostFilter, viewerID uint) ([]models.Post, error) {
	defer r.metrics.TrackQuery("list_candidates")()
	var posts []models.Post
	err := readDB(r.db).WithContext(ctx).
		Scopes(postFilterScope(f), postVotes(viewerID)).
		Preload("Author").
		Preload("Tags", tagsInOrder).
		Order("posts.id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

package service

import (
	"context"
	"strings"

	"collegeconnect/internal/featureflags"
	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/validation"
)

// FlagChecker evaluates a feature flag for a user.
type FlagChecker interface {
	Enabled(name string, userID uint) bool
}

type PostService struct {
	postRepo  repository.PostRepository
	flags     FlagChecker
	publisher Publisher
	isAdmin   AdminCheck
}

type CreatePostInput struct {
	AuthorID   uint
	Title      string
	Content    string
	Category   models.PostCategory
	Tags       []string
	Status     models.PostStatus
	Visibility models.Visibility
	IsQuestion bool
}

type ListPostsInput struct {
	Filter   repository.PostFilter
	Sort     string
	Paging   repository.Paging
	ViewerID uint
}

// UpdatePostInput carries a partial update. Nil fields are left alone, and
// nil Tags keeps the existing tags.
type UpdatePostInput struct {
	PostID     uint
	UserID     uint
	Title      *string
	Content    *string
	Category   *models.PostCategory
	Tags       []string
	Status     *models.PostStatus
	Visibility *models.Visibility
	IsPinned   *bool
	IsQuestion *bool
}

type DeletePostInput struct {
	PostID uint
	UserID uint
}

var (
	postVisibilities = []models.Visibility{models.VisibilityPublic, models.VisibilityCollegeOnly, models.VisibilityPrivate}
	postSorts        = []string{repository.SortRecent, repository.SortPopular, SortTrending}
	editableStatuses = []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished, models.PostStatusArchived}
)

func NewPostService(postRepo repository.PostRepository, flags FlagChecker, publisher Publisher, isAdmin AdminCheck) *PostService {
	return &PostService{
		postRepo:  postRepo,
		flags:     flags,
		publisher: publisherOrNop(publisher),
		isAdmin:   isAdmin,
	}
}

func validatePostBody(errs *validation.Errors, title, content string) {
	errs.Length("title", title, 5, 200, "Title must be between 5 and 200 characters")
	errs.Length("content", content, 10, 5000, "Content must be between 10 and 5000 characters")
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Category == "" {
		in.Category = models.CategoryGeneral
	}
	if in.Status == "" {
		in.Status = models.PostStatusPublished
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	tags := validation.NormalizeTags(in.Tags)

	var errs validation.Errors
	validatePostBody(&errs, in.Title, in.Content)
	validation.OneOf(&errs, "category", in.Category, models.PostCategories, false, "Invalid category")
	validation.OneOf(&errs, "status", in.Status, []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished}, false, "Posts can only be created as draft or published")
	validation.OneOf(&errs, "visibility", in.Visibility, postVisibilities, false, "Invalid visibility")
	errs.Tags("tags", tags)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:      strings.TrimSpace(in.Title),
		Content:    strings.TrimSpace(in.Content),
		AuthorID:   in.AuthorID,
		Category:   in.Category,
		Tags:       make([]models.PostTag, 0, len(tags)),
		Status:     in.Status,
		Visibility: in.Visibility,
		IsQuestion: in.IsQuestion,
	}
	for _, t := range tags {
		post.Tags = append(post.Tags, models.PostTag{Tag: t})
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	created, err := s.postRepo.GetByID(ctx, post.ID, in.AuthorID)
	if err != nil {
		return nil, err
	}
	created.Derive(utcNow())
	if created.Status == models.PostStatusPublished {
		s.publisher.PublishBroadcast(ctx, EventPostCreated, map[string]interface{}{
			"id":       created.ID,
			"title":    created.Title,
			"category": created.Category,
			"authorId": created.AuthorID,
		})
	}
	return created, nil
}

// GetPost returns a post by id, deleted ones included, and counts a view
// unless the post is deleted.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusDeleted {
		if err := s.postRepo.IncrementViews(ctx, id); err != nil {
			return nil, err
		}
		post.Views++
	}
	post.Derive(utcNow())
	return post, nil
}

// ListPosts applies the filter and sort. Trending is ranked in memory over
// the whole filtered set and falls back to recent when the trending_feed
// flag is off for the viewer.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (models.Page[models.Post], error) {
	in.Filter.Tags = validation.NormalizeTags(in.Filter.Tags)

	var errs validation.Errors
	validation.OneOf(&errs, "sort", in.Sort, postSorts, true, "Invalid sort mode")
	if in.Filter.Category != "" {
		validation.OneOf(&errs, "category", in.Filter.Category, models.PostCategories, false, "Invalid category")
	}
	if err := errs.Err(); err != nil {
		return models.Page[models.Post]{}, err
	}

	now := utcNow()
	if in.Sort == SortTrending && s.trendingEnabled(in.ViewerID) {
		candidates, err := s.postRepo.ListCandidates(ctx, in.Filter, in.ViewerID)
		if err != nil {
			return models.Page[models.Post]{}, err
		}
		rankTrending(candidates, now)
		return repository.NewPage(window(candidates, in.Paging), int64(len(candidates)), in.Paging), nil
	}

	sortMode := in.Sort
	if sortMode == SortTrending {
		sortMode = repository.SortRecent
	}
	posts, total, err := s.postRepo.List(ctx, in.Filter, sortMode, in.Paging, in.ViewerID)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	for i := range posts {
		posts[i].Derive(now)
	}
	return repository.NewPage(posts, total, in.Paging), nil
}

func (s *PostService) trendingEnabled(userID uint) bool {
	if s.flags == nil {
		return true
	}
	return s.flags.Enabled(featureflags.TrendingFeed, userID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.livePost(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, post.AuthorID, in.UserID, "You can only update your own posts"); err != nil {
		return nil, err
	}
	if in.IsPinned != nil {
		if err := authorize(ctx, s.isAdmin, 0, in.UserID, "Only admins can pin posts"); err != nil {
			return nil, err
		}
		post.IsPinned = *in.IsPinned
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = strings.TrimSpace(*in.Content)
	}
	if in.Category != nil {
		post.Category = *in.Category
	}
	if in.Status != nil {
		post.Status = *in.Status
	}
	if in.Visibility != nil {
		post.Visibility = *in.Visibility
	}
	if in.IsQuestion != nil {
		post.IsQuestion = *in.IsQuestion
	}
	var tags []string
	if in.Tags != nil {
		tags = validation.NormalizeTags(in.Tags)
	}

	var errs validation.Errors
	validatePostBody(&errs, post.Title, post.Content)
	validation.OneOf(&errs, "category", post.Category, models.PostCategories, false, "Invalid category")
	validation.OneOf(&errs, "status", post.Status, editableStatuses, false, "Invalid status")
	validation.OneOf(&errs, "visibility", post.Visibility, postVisibilities, false, "Invalid visibility")
	errs.Tags("tags", tags)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post, tags); err != nil {
		return nil, err
	}
	updated, err := s.postRepo.GetByID(ctx, post.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	updated.Derive(utcNow())
	return updated, nil
}

// DeletePost flips the post to deleted. The row and its votes stay.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.livePost(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, post.AuthorID, in.UserID, "You can only delete your own posts"); err != nil {
		return err
	}
	return s.postRepo.SetStatus(ctx, in.PostID, models.PostStatusDeleted)
}

func (s *PostService) livePost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusDeleted {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

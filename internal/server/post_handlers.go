package server

import (
	"context"
	"strconv"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"
	"collegeconnect/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	Category   models.PostCategory `json:"category"`
	Tags       []string            `json:"tags"`
	Status     models.PostStatus   `json:"status"`
	Visibility models.Visibility   `json:"visibility"`
	IsQuestion bool                `json:"isQuestion"`
}

type updatePostRequest struct {
	Title      *string              `json:"title"`
	Content    *string              `json:"content"`
	Category   *models.PostCategory `json:"category"`
	Tags       []string             `json:"tags"`
	Status     *models.PostStatus   `json:"status"`
	Visibility *models.Visibility   `json:"visibility"`
	IsPinned   *bool                `json:"isPinned"`
	IsQuestion *bool                `json:"isQuestion"`
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Tags posts
// @Produce json
// @Param category query string false "Category"
// @Param tags query string false "Comma separated tags"
// @Param author query int false "Author ID"
// @Param college query string false "Author college"
// @Param search query string false "Title and content search"
// @Param sort query string false "recent, popular or trending"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ListEnvelope
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	authorID, _ := strconv.ParseUint(c.Query("author"), 10, 32)
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Filter: repository.PostFilter{
			Category: models.PostCategory(c.Query("category")),
			Tags:     validation.SplitList(c.Query("tags")),
			AuthorID: uint(authorID),
			College:  c.Query("college"),
			Search:   c.Query("search"),
		},
		Sort:     c.Query("sort"),
		Paging:   parsePaging(c, service.DefaultPageLimit),
		ViewerID: s.optionalUserID(c),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Description Returns the post and counts a view. Deleted posts are still returned by id.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.Post}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "", post)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Envelope{data=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:   currentUserID(c),
		Title:      req.Title,
		Content:    req.Content,
		Category:   req.Category,
		Tags:       req.Tags,
		Status:     req.Status,
		Visibility: req.Visibility,
		IsQuestion: req.IsQuestion,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, "Post created successfully", post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Post}
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID:     id,
		UserID:     currentUserID(c),
		Title:      req.Title,
		Content:    req.Content,
		Category:   req.Category,
		Tags:       req.Tags,
		Status:     req.Status,
		Visibility: req.Visibility,
		IsPinned:   req.IsPinned,
		IsQuestion: req.IsQuestion,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Post updated successfully", post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Soft delete. The post stays readable by id.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{PostID: id, UserID: currentUserID(c)}); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Post deleted successfully", nil)
}

// UpvotePost handles POST /api/posts/:id/upvote
// @Summary Upvote post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.VoteCounts}
// @Failure 400 {object} models.ErrorResponse "ALREADY_VOTED"
// @Router /posts/{id}/upvote [post]
func (s *Server) UpvotePost(c *fiber.Ctx) error {
	return s.applyVote(c, repository.PostVotes, s.engagementService.Upvote, "Post upvoted")
}

// DownvotePost handles POST /api/posts/:id/downvote
// @Summary Downvote post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.VoteCounts}
// @Router /posts/{id}/downvote [post]
func (s *Server) DownvotePost(c *fiber.Ctx) error {
	return s.applyVote(c, repository.PostVotes, s.engagementService.Downvote, "Post downvoted")
}

// RemovePostVote handles DELETE /api/posts/:id/vote
// @Summary Remove vote from post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.VoteCounts}
// @Router /posts/{id}/vote [delete]
func (s *Server) RemovePostVote(c *fiber.Ctx) error {
	return s.applyVote(c, repository.PostVotes, s.engagementService.RemoveVote, "Vote removed")
}

type voteFunc func(ctx context.Context, t repository.VoteTarget, id, userID uint) (models.VoteCounts, error)

func (s *Server) applyVote(c *fiber.Ctx, target repository.VoteTarget, apply voteFunc, message string) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	counts, err := apply(c.UserContext(), target, id, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, message, counts)
}

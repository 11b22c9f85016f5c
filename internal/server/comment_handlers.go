package server

import (
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:id/comments
// @Summary Top-level comments on a post
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ListEnvelope
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.commentService.ListComments(c.UserContext(), postID, parsePaging(c, service.CommentPageLimit))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

// GetReplies handles GET /api/comments/:id/replies
// @Summary Replies to a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.ListEnvelope
// @Router /comments/{id}/replies [get]
func (s *Server) GetReplies(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.commentService.ListReplies(c.UserContext(), commentID, parsePaging(c, service.CommentPageLimit))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post or reply to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{content=string,parentComment=int} true "Comment"
// @Success 201 {object} models.Envelope{data=models.Comment}
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content       string `json:"content"`
		ParentComment *uint  `json:"parentComment"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   currentUserID(c),
		PostID:   postID,
		ParentID: req.ParentComment,
		Content:  req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, "Comment added successfully", comment)
}

// UpdateComment handles PUT /api/comments/:id
// @Summary Edit comment
// @Description The previous content is kept in the edit history.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} models.Envelope{data=models.Comment}
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Comment updated successfully", comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Envelope
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
	}); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Comment deleted successfully", nil)
}

// UpvoteComment handles POST /api/comments/:id/upvote
// @Summary Upvote comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Envelope{data=models.VoteCounts}
// @Router /comments/{id}/upvote [post]
func (s *Server) UpvoteComment(c *fiber.Ctx) error {
	return s.applyVote(c, repository.CommentVotes, s.engagementService.Upvote, "Comment upvoted")
}

// DownvoteComment handles POST /api/comments/:id/downvote
// @Summary Downvote comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Envelope{data=models.VoteCounts}
// @Router /comments/{id}/downvote [post]
func (s *Server) DownvoteComment(c *fiber.Ctx) error {
	return s.applyVote(c, repository.CommentVotes, s.engagementService.Downvote, "Comment downvoted")
}

// RemoveCommentVote handles DELETE /api/comments/:id/vote
// @Summary Remove vote from comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Envelope{data=models.VoteCounts}
// @Router /comments/{id}/vote [delete]
func (s *Server) RemoveCommentVote(c *fiber.Ctx) error {
	return s.applyVote(c, repository.CommentVotes, s.engagementService.RemoveVote, "Vote removed")
}

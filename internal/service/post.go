package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 50000
	MaxCommentLength = 2000
)

// PostService handles business logic for the post aggregate: the post
// itself, its lifecycle flag, and its owned comments.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// Create validates and saves a new post on behalf of the authenticated
// caller. Authorship comes from the verified claims, never from the request
// body — a client cannot attribute a post to someone else. AuthorName is a
// snapshot of the username at creation time.
func (s *PostService) Create(ctx context.Context, claims *auth.Claims, title, content string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}

	post := &model.Post{
		Title:      title,
		Content:    content,
		AuthorID:   claims.UserID,
		AuthorName: claims.Username,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("authorID", claims.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/post: creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("authorID", post.AuthorID),
	)

	return post, nil
}

// Get returns a post with its comments, or ErrNotFound.
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.posts.GetByID(ctx, id)
}

// ListAll returns every post, archived ones included.
func (s *PostService) ListAll(ctx context.Context) ([]model.Post, error) {
	return s.list(ctx, false)
}

// ListActive returns only posts with the active lifecycle flag.
func (s *PostService) ListActive(ctx context.Context) ([]model.Post, error) {
	return s.list(ctx, true)
}

func (s *PostService) list(ctx context.Context, activeOnly bool) ([]model.Post, error) {
	posts, err := s.posts.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/post: listing posts: %w", err)
	}
	return posts, nil
}

// SearchByTitle finds posts whose title contains the substring,
// case-insensitively. No matches yields an empty slice.
func (s *PostService) SearchByTitle(ctx context.Context, substring string) ([]model.Post, error) {
	if substring == "" {
		return nil, apperror.ValidationFailed("title", "search term is required")
	}
	posts, err := s.posts.SearchByTitle(ctx, substring)
	if err != nil {
		return nil, fmt.Errorf("service/post: searching by title: %w", err)
	}
	return posts, nil
}

// SearchByContent finds posts whose content contains the substring,
// case-insensitively — but unlike SearchByTitle, an empty result is
// reported as ErrNotFound (→ 404).
//
// The asymmetry between the two searches is inherited product behaviour
// that clients already depend on. Flagged as an inconsistency candidate;
// do not unify without a product decision.
func (s *PostService) SearchByContent(ctx context.Context, substring string) ([]model.Post, error) {
	if substring == "" {
		return nil, apperror.ValidationFailed("content", "search term is required")
	}
	posts, err := s.posts.SearchByContent(ctx, substring)
	if err != nil {
		return nil, fmt.Errorf("service/post: searching by content: %w", err)
	}
	if len(posts) == 0 {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "no posts found"}
	}
	return posts, nil
}

// Update overwrites a post's title and content. Admin-gated at the router;
// authorship and lifecycle are untouched.
func (s *PostService) Update(ctx context.Context, id, title, content string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Title = title
	post.Content = content
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post updated", slog.String("postID", post.ID))
	return post, nil
}

// Activate sets the lifecycle flag to active. Idempotent: activating an
// already-active post succeeds with changed=false, so the caller can report
// "already active" without treating it as a failure.
func (s *PostService) Activate(ctx context.Context, id string) (*model.Post, bool, error) {
	return s.setActive(ctx, id, true)
}

// Archive sets the lifecycle flag to inactive. Idempotent like Activate.
func (s *PostService) Archive(ctx context.Context, id string) (*model.Post, bool, error) {
	return s.setActive(ctx, id, false)
}

func (s *PostService) setActive(ctx context.Context, id string, active bool) (*model.Post, bool, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if post.IsActive == active {
		return post, false, nil
	}

	if err := s.posts.SetActive(ctx, id, active); err != nil {
		return nil, false, err
	}
	post.IsActive = active

	s.logger.Info("post lifecycle changed",
		slog.String("postID", id),
		slog.Bool("active", active),
	)
	return post, true, nil
}

// Delete removes a post and all of its comments atomically.
// Admin-gated at the router.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("post deleted", slog.String("postID", id))
	return nil
}

// AddComment appends a comment to a post on behalf of the authenticated
// caller. Fails with ErrNotFound if the post is absent.
func (s *PostService) AddComment(ctx context.Context, postID string, claims *auth.Claims, body string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.ValidationFailed("comment", "comment text is required")
	}
	if len(body) > MaxCommentLength {
		return nil, apperror.ValidationFailed("comment",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	comment := &model.Comment{
		AuthorID:   claims.UserID,
		AuthorName: claims.Username,
		Body:       body,
	}

	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment added",
		slog.String("postID", postID),
		slog.String("commentID", comment.ID),
	)
	return comment, nil
}

// EditComment replaces a comment's text.
//
// OWNERSHIP POLICY — author-or-admin:
// the comment's author may edit their own comment, an admin may edit any
// comment, and everyone else gets ErrForbidden. This is an explicit policy
// decision (the check must not be skipped or left to the router: the route
// is merely authenticated, so the service is the only place that knows who
// wrote the comment).
func (s *PostService) EditComment(ctx context.Context, postID, commentID string, claims *auth.Claims, body string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.ValidationFailed("comment", "comment text is required")
	}
	if len(body) > MaxCommentLength {
		return nil, apperror.ValidationFailed("comment",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	var target *model.Comment
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			target = &post.Comments[i]
			break
		}
	}
	if target == nil {
		return nil, apperror.NotFound("comment", commentID)
	}

	if target.AuthorID != claims.UserID && !claims.IsAdmin {
		return nil, apperror.Forbidden("only the comment's author or an admin may edit it")
	}

	if err := s.posts.UpdateComment(ctx, postID, commentID, body); err != nil {
		return nil, err
	}
	target.Body = body

	s.logger.Info("comment edited",
		slog.String("postID", postID),
		slog.String("commentID", commentID),
		slog.String("editorID", claims.UserID),
	)
	return target, nil
}

// DeleteComment removes a comment from a post. Admin-gated at the router.
func (s *PostService) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := s.posts.DeleteComment(ctx, postID, commentID); err != nil {
		return err
	}
	s.logger.Info("comment deleted",
		slog.String("postID", postID),
		slog.String("commentID", commentID),
	)
	return nil
}

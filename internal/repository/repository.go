// Package repository defines the storage contracts the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
//
// PROGRAMMING TO AN INTERFACE:
// Services receive these interfaces, never a concrete *sqlite.DB. That keeps
// the business logic free of SQL details, lets tests inject in-memory mocks,
// and means swapping the storage engine touches exactly one line of wiring.
package repository

import (
	"context"

	"github.com/sakif/blog-api/internal/model"
)

// UserRepository stores user accounts. Email uniqueness is enforced here
// (by the storage engine's unique constraint), not in the service.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// PostRepository stores posts together with their comments. A post and its
// comments form one aggregate: every comment mutation goes through this
// interface addressed by (postID, commentID), and deleting a post removes
// its comments in the same atomic operation.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, activeOnly bool) ([]model.Post, error)
	SearchByTitle(ctx context.Context, substring string) ([]model.Post, error)
	SearchByContent(ctx context.Context, substring string) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	AddComment(ctx context.Context, postID string, comment *model.Comment) error
	UpdateComment(ctx context.Context, postID, commentID, body string) error
	DeleteComment(ctx context.Context, postID, commentID string) error
}

// Package repository declares the storage contracts the services depend on.
// The sqlstore sub-package implements them over SQLite or PostgreSQL.
package repository

import (
	"context"

	"github.com/sakif/student-dashboard/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// Create inserts u and its (possibly empty) links row atomically.
	Create(ctx context.Context, u *model.User, links *model.UserLinks) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByRollNumber(ctx context.Context, rollNumber string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	// Update writes every mutable column and keeps the links row's roll number in step.
	Update(ctx context.Context, u *model.User) error
	// Delete removes the user with their links and certifications.
	Delete(ctx context.Context, id string) error
}

type LinksRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.UserLinks, error)
	GetByRollNumber(ctx context.Context, rollNumber string) (*model.UserLinks, error)
	// Ensure returns the user's links row, creating an empty one if missing.
	Ensure(ctx context.Context, userID, rollNumber string) (*model.UserLinks, error)
	Update(ctx context.Context, links *model.UserLinks) error
	// ListLinked returns every row with at least one analytics handle set.
	ListLinked(ctx context.Context) ([]model.UserLinks, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, d *model.Document) error
	// Get loads the document including its content.
	Get(ctx context.Context, name string) (*model.Document, error)
	// Info loads everything but the content.
	Info(ctx context.Context, name string) (*model.Document, error)
	// List returns metadata, newest first, of documents whose name ends with suffix ("" for all).
	List(ctx context.Context, suffix string) ([]model.Document, error)
	// Replace overwrites content, type and size of an existing document.
	Replace(ctx context.Context, d *model.Document) error
	Delete(ctx context.Context, name string) error
}

type CertificationRepository interface {
	Create(ctx context.Context, c *model.Certification) error
	Get(ctx context.Context, id string) (*model.Certification, error)
	// ListByUser returns metadata only, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Certification, error)
	Delete(ctx context.Context, id string) error
}

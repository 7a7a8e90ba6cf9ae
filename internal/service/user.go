package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/auth"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository"
	"github.com/sakif/student-dashboard/internal/validation"
)

// msgNoHandlesLinked matches the analytics endpoint's message for a request
// without any handle.
const msgNoHandlesLinked = "Please add your LeetCode or Codeforces handle"

// AnalyticsProvider is the part of analytics.Service that UserService needs.
type AnalyticsProvider interface {
	Combined(ctx context.Context, handles []model.PlatformHandle, refresh bool) (*model.CombinedAnalytics, error)
}

// CreateUserInput is one account for POST /api/users and the bulk import.
type CreateUserInput struct {
	Name       string `json:"name"       validate:"notblank,max=100"`
	Email      string `json:"email"      validate:"required,email,max=254"`
	Password   string `json:"password"   validate:"required,min=6,max=72"`
	RollNumber string `json:"rollNumber" validate:"required,rollnumber,max=32"`
}

func (in *CreateUserInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.RollNumber = strings.TrimSpace(in.RollNumber)
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Name       *string `json:"name"       validate:"omitempty,notblank,max=100"`
	Email      *string `json:"email"      validate:"omitempty,email,max=254"`
	RollNumber *string `json:"rollNumber" validate:"omitempty,rollnumber,max=32"`
}

// UserService manages student accounts and their platform links.
//
// OWNERSHIP RULE:
// Mutations take the authenticated user's ID as actorID and fail with
// Forbidden unless it owns the record. Bulk imports are the exception:
// they are an administrative tool and only require a session.
type UserService struct {
	users     repository.UserRepository
	links     repository.LinksRepository
	passwords *auth.PasswordService
	analytics AnalyticsProvider
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	links repository.LinksRepository,
	passwords *auth.PasswordService,
	analytics AnalyticsProvider,
	validate *validator.Validate,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		links:     links,
		passwords: passwords,
		analytics: analytics,
		validate:  validate,
		logger:    logger,
	}
}

// Create adds an account with an empty links row.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.normalize()
	if err := validation.Struct(s.validate, &in); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, "", in.Email, in.RollNumber, msgEmailTaken, msgRollNumberTaken); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// create assumes in is normalized, valid and free of known duplicates.
func (s *UserService) create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}

	u := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		RollNumber:   in.RollNumber,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u, &model.UserLinks{}); err != nil {
		return nil, fmt.Errorf("service/user: creating %s: %w", in.Email, err)
	}
	return u, nil
}

// checkAvailable fails with a Conflict when email or roll number belongs to
// an account other than selfID. Empty values are not checked.
func (s *UserService) checkAvailable(ctx context.Context, selfID, email, roll, emailMsg, rollMsg string) error {
	if email != "" {
		u, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && u.ID != selfID:
			return apperror.Conflict(emailMsg)
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("service/user: checking email: %w", err)
		}
	}
	if roll != "" {
		u, err := s.users.GetByRollNumber(ctx, roll)
		switch {
		case err == nil && u.ID != selfID:
			return apperror.Conflict(rollMsg)
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("service/user: checking roll number: %w", err)
		}
	}
	return nil
}

func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}
	return u, nil
}

// Update applies a partial update. A roll number change is carried over to
// the links row by the repository.
func (s *UserService) Update(ctx context.Context, actorID, id string, in UpdateUserInput) (*model.User, error) {
	if err := authorize(actorID, id); err != nil {
		return nil, err
	}
	trimPtr(&in.Name)
	trimPtr(&in.RollNumber)
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := validation.Struct(s.validate, &in); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}

	var email, roll string
	if in.Email != nil && *in.Email != "" && *in.Email != u.Email {
		email = *in.Email
	}
	if in.RollNumber != nil && *in.RollNumber != "" && *in.RollNumber != u.RollNumber {
		roll = *in.RollNumber
	}
	if err := s.checkAvailable(ctx, u.ID, email, roll, "Email already in use", "Roll number already in use"); err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != "" {
		u.Name = *in.Name
	}
	if email != "" {
		u.Email = email
	}
	if roll != "" {
		u.RollNumber = roll
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("service/user: updating %s: %w", id, err)
	}
	return u, nil
}

// Delete removes the account with its links and certifications.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if err := authorize(actorID, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/user: deleting %s: %w", id, err)
	}
	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}

// Links returns the links row of a user.
func (s *UserService) Links(ctx context.Context, userID string) (*model.UserLinks, error) {
	l, err := s.links.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}
	return l, nil
}

func (s *UserService) LinksByRollNumber(ctx context.Context, rollNumber string) (*model.UserLinks, error) {
	l, err := s.links.GetByRollNumber(ctx, strings.TrimSpace(rollNumber))
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}
	return l, nil
}

// UpdateLinks patches the links of userID.
func (s *UserService) UpdateLinks(ctx context.Context, actorID, userID string, patch model.LinksPatch) (*model.UserLinks, error) {
	if err := authorize(actorID, userID); err != nil {
		return nil, err
	}
	l, err := s.links.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}
	return s.applyPatch(ctx, l, patch)
}

// UpdateLinksByRollNumber patches the links of the student with rollNumber.
func (s *UserService) UpdateLinksByRollNumber(ctx context.Context, actorID, rollNumber string, patch model.LinksPatch) (*model.UserLinks, error) {
	l, err := s.links.GetByRollNumber(ctx, strings.TrimSpace(rollNumber))
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}
	if err := authorize(actorID, l.UserID); err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, l, patch)
}

func (s *UserService) applyPatch(ctx context.Context, l *model.UserLinks, patch model.LinksPatch) (*model.UserLinks, error) {
	if err := validation.Struct(s.validate, &patch); err != nil {
		return nil, err
	}
	patch.Apply(l)
	if err := s.links.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}
	return l, nil
}

// Analytics resolves the user's linked handles and returns their combined
// platform analytics.
func (s *UserService) Analytics(ctx context.Context, userID string, refresh bool) (*model.CombinedAnalytics, error) {
	l, err := s.links.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}
	handles := l.AnalyticsHandles()
	if len(handles) == 0 {
		return nil, apperror.ValidationFailed("handles", msgNoHandlesLinked)
	}
	return s.analytics.Combined(ctx, handles, refresh)
}

func authorize(actorID, ownerID string) error {
	if actorID == "" || actorID != ownerID {
		return apperror.Forbidden("Not authorized to modify this user")
	}
	return nil
}

func trimPtr(p **string) {
	if *p != nil {
		v := strings.TrimSpace(**p)
		*p = &v
	}
}

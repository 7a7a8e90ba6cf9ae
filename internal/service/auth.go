// Package service holds the business rules of the dashboard API.
//
//	Handler (HTTP) → Service (rules, validation) → Repository (SQL)
//	                       ↘ auth (JWT, bcrypt)   ↘ analytics (platform data)
//
// Services never see an http.Request or write a status code. They return
// *apperror.AppError values and the handler package maps those to HTTP.
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

const (
	msgInvalidCredentials = "Invalid credentials"
	msgEmailTaken         = "User already exists with this email"
	msgRollNumberTaken    = "User already exists with this roll number"
)

// RegisterInput is the body of POST /api/auth/register. The optional
// handles seed the new user's links row.
type RegisterInput struct {
	Name       string `json:"name"       validate:"notblank,max=100"`
	Email      string `json:"email"      validate:"required,email,max=254"`
	Password   string `json:"password"   validate:"required,min=6,max=72"`
	RollNumber string `json:"rollNumber" validate:"required,rollnumber,max=32"`

	LeetCode      string `json:"leetcode"      validate:"max=64"`
	Codeforces    string `json:"codeforces"    validate:"max=64"`
	AtCoder       string `json:"atcoder"       validate:"max=64"`
	GitHub        string `json:"github"        validate:"max=100"`
	HackerRank    string `json:"hackerrank"    validate:"max=64"`
	CodeChef      string `json:"codechef"      validate:"max=64"`
	GeeksForGeeks string `json:"geeksforgeeks" validate:"max=64"`
	HackerEarth   string `json:"hackerearth"   validate:"max=64"`
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.RollNumber = strings.TrimSpace(in.RollNumber)
}

func (in *RegisterInput) links() *model.UserLinks {
	return &model.UserLinks{
		LeetCode:      strings.TrimSpace(in.LeetCode),
		Codeforces:    strings.TrimSpace(in.Codeforces),
		AtCoder:       strings.TrimSpace(in.AtCoder),
		GitHub:        strings.TrimSpace(in.GitHub),
		HackerRank:    strings.TrimSpace(in.HackerRank),
		CodeChef:      strings.TrimSpace(in.CodeChef),
		GeeksForGeeks: strings.TrimSpace(in.GeeksForGeeks),
		HackerEarth:   strings.TrimSpace(in.HackerEarth),
	}
}

// LoginInput is the body of POST /api/auth/login. Email wins when both
// identifiers are given.
type LoginInput struct {
	Email      string `json:"email"`
	RollNumber string `json:"rollNumber"`
	Password   string `json:"password"`
}

// AuthResult bundles what a successful login hands back to the client so
// the handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User      `json:"user"`
	Links *model.UserLinks `json:"links"`
	Token string           `json:"token,omitempty"`
}

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	users     repository.UserRepository
	links     repository.LinksRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	links repository.LinksRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	validate *validator.Validate,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		links:     links,
		tokens:    tokens,
		passwords: passwords,
		validate:  validate,
		logger:    logger,
	}
}

// Register creates a password account together with its links row.
//
// Email and roll number are checked up front so the caller learns which
// one is taken; the UNIQUE constraints still catch a concurrent duplicate,
// which surfaces as a generic conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.normalize()
	if err := validation.Struct(s.validate, &in); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, in.Email, in.RollNumber); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		RollNumber:   in.RollNumber,
		PasswordHash: hash,
	}
	links := in.links()
	if err := s.users.Create(ctx, user, links); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %s: %w", in.Email, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("rollNumber", user.RollNumber),
	)
	return s.issue(user, links)
}

// ensureUnique reports which of email and roll number is already taken.
func (s *AuthService) ensureUnique(ctx context.Context, email, rollNumber string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperror.Conflict(msgEmailTaken)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: checking email: %w", err)
	}

	if _, err := s.users.GetByRollNumber(ctx, rollNumber); err == nil {
		return apperror.Conflict(msgRollNumberTaken)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: checking roll number: %w", err)
	}
	return nil
}

// Login authenticates by email or roll number. Unknown accounts and wrong
// passwords get the same answer so the endpoint does not reveal which
// accounts exist.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	roll := strings.TrimSpace(in.RollNumber)
	if (email == "" && roll == "") || in.Password == "" {
		return nil, apperror.ValidationFailed("", "Please provide (email or roll number) and password")
	}

	var (
		user *model.User
		err  error
	)
	if email != "" {
		user, err = s.users.GetByEmail(ctx, email)
	} else {
		user, err = s.users.GetByRollNumber(ctx, roll)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up account: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	// Accounts imported before links existed get an empty row on first login.
	links, err := s.links.Ensure(ctx, user.ID, user.RollNumber)
	if err != nil {
		return nil, fmt.Errorf("service/auth: ensuring links for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user, links)
}

// LoginOrRegisterGitHub handles the OAuth callback.
//
// Lookup order: an account already bound to the GitHub ID, then an account
// with the same (verified on GitHub) email, which gets bound, then a new
// GitHub-only account without password or roll number. In every case the
// GitHub login fills the "github" link if it was empty.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetByGitHubID(ctx, gh.ID)
	switch {
	case err == nil:
		user.AvatarURL = gh.AvatarURL
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: refreshing GitHub user %d: %w", gh.ID, err)
		}
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.bindOrCreateGitHub(ctx, gh)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("service/auth: looking up GitHub user %d: %w", gh.ID, err)
	}

	links, err := s.links.Ensure(ctx, user.ID, user.RollNumber)
	if err != nil {
		return nil, fmt.Errorf("service/auth: ensuring links for %s: %w", user.ID, err)
	}
	if links.GitHub == "" {
		links.GitHub = gh.Login
		if err := s.links.Update(ctx, links); err != nil {
			return nil, fmt.Errorf("service/auth: linking GitHub login for %s: %w", user.ID, err)
		}
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", gh.Login),
	)
	return s.issue(user, links)
}

func (s *AuthService) bindOrCreateGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	email := normalizeEmail(gh.Email)

	if email != "" {
		user, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			user.GitHubID = gh.ID
			if user.AvatarURL == "" {
				user.AvatarURL = gh.AvatarURL
			}
			if err := s.users.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("service/auth: binding GitHub user %d: %w", gh.ID, err)
			}
			return user, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
		}
	}

	user := &model.User{
		Name:      gh.DisplayName(),
		Email:     email,
		GitHubID:  gh.ID,
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.Create(ctx, user, &model.UserLinks{GitHub: gh.Login}); err != nil {
		return nil, fmt.Errorf("service/auth: creating GitHub user %d: %w", gh.ID, err)
	}
	return user, nil
}

// Me returns the authenticated user and their links.
func (s *AuthService) Me(ctx context.Context, userID string) (*AuthResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	links, err := s.links.Ensure(ctx, user.ID, user.RollNumber)
	if err != nil {
		return nil, fmt.Errorf("service/auth: ensuring links for %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Links: links}, nil
}

func (s *AuthService) issue(user *model.User, links *model.UserLinks) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Links: links, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

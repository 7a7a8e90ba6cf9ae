package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, name,
	COALESCE(email, '') AS email,
	COALESCE(roll_number, '') AS roll_number,
	COALESCE(password_hash, '') AS password_hash,
	COALESCE(github_id, 0) AS github_id,
	avatar_url, created_at, updated_at`

type UserStore struct {
	db *sqlx.DB
}

func (s *UserStore) Create(ctx context.Context, u *model.User, links *model.UserLinks) error {
	now := time.Now().UTC()
	u.ID = xid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now

	if links == nil {
		links = &model.UserLinks{}
	}
	links.UserID = u.ID
	links.RollNumber = u.RollNumber
	links.UpdatedAt = now

	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO users (id, name, email, roll_number, password_hash, github_id, avatar_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			u.ID, u.Name, nullString(u.Email), nullString(u.RollNumber), nullString(u.PasswordHash),
			nullInt(u.GitHubID), u.AvatarURL, u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			return translate(err, nil, "User already exists with this email, roll number or GitHub account")
		}
		return insertLinks(ctx, tx, links)
	})
	if err != nil {
		return fmt.Errorf("sqlstore: creating user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getBy(ctx, "id", id, apperror.NotFound("user", id))
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getBy(ctx, "email", email, apperror.NotFoundMessage("user not found with email "+email))
}

func (s *UserStore) GetByRollNumber(ctx context.Context, rollNumber string) (*model.User, error) {
	return s.getBy(ctx, "roll_number", rollNumber, apperror.NotFoundMessage("Student not found with roll number "+rollNumber))
}

func (s *UserStore) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return s.getBy(ctx, "github_id", githubID, apperror.NotFoundMessage(fmt.Sprintf("user not found with github id %d", githubID)))
}

// getBy is only ever called with a fixed column name, never user input.
func (s *UserStore) getBy(ctx context.Context, column string, value any, notFound *apperror.AppError) (*model.User, error) {
	var u model.User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)
	if err := s.db.GetContext(ctx, &u, query, value); err != nil {
		return nil, translate(err, notFound, "")
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	users := []model.User{}
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id LIMIT ? OFFSET ?`)
	if err := s.db.SelectContext(ctx, &users, query, opts.Limit, opts.Offset); err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	return users, nil
}

func (s *UserStore) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()

	return inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE users SET name = ?, email = ?, roll_number = ?, password_hash = ?, github_id = ?,
			 avatar_url = ?, updated_at = ? WHERE id = ?`),
			u.Name, nullString(u.Email), nullString(u.RollNumber), nullString(u.PasswordHash),
			nullInt(u.GitHubID), u.AvatarURL, u.UpdatedAt, u.ID,
		)
		if err != nil {
			return translate(err, nil, "Email or roll number already in use")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.NotFound("user", u.ID)
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(
			`UPDATE user_links SET roll_number = ?, updated_at = ? WHERE user_id = ?`),
			u.RollNumber, u.UpdatedAt, u.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: syncing links roll number for %s: %w", u.ID, err)
		}
		return nil
	})
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	return inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, table := range []string{"certifications", "user_links"} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE user_id = ?`), id); err != nil {
				return fmt.Errorf("sqlstore: deleting %s of user %s: %w", table, id, err)
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting user %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.NotFound("user", id)
		}
		return nil
	})
}

package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository"
)

// compile-time check that *LinksStore implements repository.LinksRepository
var _ repository.LinksRepository = (*LinksStore)(nil)

const linksColumns = `user_id, roll_number, leetcode, codeforces, atcoder, github,
	hackerrank, codechef, geeksforgeeks, hackerearth, updated_at`

type LinksStore struct {
	db *sqlx.DB
}

func insertLinks(ctx context.Context, tx *sqlx.Tx, l *model.UserLinks) error {
	_, err := tx.NamedExecContext(ctx,
		`INSERT INTO user_links (`+linksColumns+`)
		 VALUES (:user_id, :roll_number, :leetcode, :codeforces, :atcoder, :github,
		         :hackerrank, :codechef, :geeksforgeeks, :hackerearth, :updated_at)`,
		l,
	)
	if err != nil {
		return fmt.Errorf("inserting links for %s: %w", l.UserID, err)
	}
	return nil
}

func (s *LinksStore) GetByUserID(ctx context.Context, userID string) (*model.UserLinks, error) {
	var l model.UserLinks
	query := s.db.Rebind(`SELECT ` + linksColumns + ` FROM user_links WHERE user_id = ?`)
	if err := s.db.GetContext(ctx, &l, query, userID); err != nil {
		return nil, translate(err, apperror.NotFoundMessage("Platform links not found for user "+userID), "")
	}
	return &l, nil
}

func (s *LinksStore) GetByRollNumber(ctx context.Context, rollNumber string) (*model.UserLinks, error) {
	var l model.UserLinks
	query := s.db.Rebind(`SELECT ` + linksColumns + ` FROM user_links WHERE roll_number = ?`)
	if err := s.db.GetContext(ctx, &l, query, rollNumber); err != nil {
		return nil, translate(err, apperror.NotFoundMessage("Platform links not found for roll number "+rollNumber), "")
	}
	return &l, nil
}

func (s *LinksStore) Ensure(ctx context.Context, userID, rollNumber string) (*model.UserLinks, error) {
	l, err := s.GetByUserID(ctx, userID)
	if err == nil {
		return l, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	l = &model.UserLinks{UserID: userID, RollNumber: rollNumber, UpdatedAt: time.Now().UTC()}
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error { return insertLinks(ctx, tx, l) })
	if err != nil {
		if isUniqueViolation(err) {
			// created concurrently
			return s.GetByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("sqlstore: ensuring links for %s: %w", userID, err)
	}
	return l, nil
}

func (s *LinksStore) Update(ctx context.Context, l *model.UserLinks) error {
	l.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE user_links SET leetcode = :leetcode, codeforces = :codeforces, atcoder = :atcoder,
		 github = :github, hackerrank = :hackerrank, codechef = :codechef,
		 geeksforgeeks = :geeksforgeeks, hackerearth = :hackerearth, updated_at = :updated_at
		 WHERE user_id = :user_id`,
		l,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating links for %s: %w", l.UserID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundMessage("Platform links not found for user " + l.UserID)
	}
	return nil
}

func (s *LinksStore) ListLinked(ctx context.Context) ([]model.UserLinks, error) {
	links := []model.UserLinks{}
	err := s.db.SelectContext(ctx, &links,
		`SELECT `+linksColumns+` FROM user_links
		 WHERE leetcode <> '' OR codeforces <> '' OR atcoder <> ''
		 ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing linked handles: %w", err)
	}
	return links, nil
}

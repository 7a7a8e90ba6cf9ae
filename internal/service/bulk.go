package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/validation"
)

// maxBulkItems bounds one bulk request; bcrypt makes each created account
// cost a few hundred milliseconds.
const maxBulkItems = 500

// BulkCreated is one account the bulk import created.
type BulkCreated struct {
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"rollNumber"`
}

// BulkSkipped is one input the bulk import rejected, with the reason.
type BulkSkipped struct {
	Index      int    `json:"index"`
	Email      string `json:"email"`
	RollNumber string `json:"rollNumber"`
	Reason     string `json:"reason"`
}

type BulkCreateSummary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type BulkCreateResult struct {
	Summary BulkCreateSummary `json:"summary"`
	Created []BulkCreated     `json:"createdUsers"`
	Skipped []BulkSkipped     `json:"skippedUsers"`
}

// BulkCreate imports many accounts. Each item succeeds or is skipped on its
// own; duplicates are detected against the store and within the batch.
func (s *UserService) BulkCreate(ctx context.Context, items []CreateUserInput) (*BulkCreateResult, error) {
	if err := checkBulkSize(len(items), "users"); err != nil {
		return nil, err
	}

	res := &BulkCreateResult{Created: []BulkCreated{}, Skipped: []BulkSkipped{}}
	seenEmail := make(map[string]bool, len(items))
	seenRoll := make(map[string]bool, len(items))

	for i, in := range items {
		in.normalize()
		skip := func(reason string) {
			res.Skipped = append(res.Skipped, BulkSkipped{
				Index: i, Email: orNA(in.Email), RollNumber: orNA(in.RollNumber), Reason: reason,
			})
		}

		if err := validation.Struct(s.validate, &in); err != nil {
			skip(reason(err))
			continue
		}
		if seenEmail[in.Email] {
			skip("Duplicate email in this batch: " + in.Email)
			continue
		}
		if seenRoll[in.RollNumber] {
			skip("Duplicate roll number in this batch: " + in.RollNumber)
			continue
		}
		if err := s.checkAvailable(ctx, "", in.Email, in.RollNumber,
			"User already exists with email: "+in.Email,
			"User already exists with roll number: "+in.RollNumber); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			skip(reason(err))
			continue
		}

		u, err := s.create(ctx, in)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			skip(reason(err))
			continue
		}
		seenEmail[in.Email] = true
		seenRoll[in.RollNumber] = true
		res.Created = append(res.Created, BulkCreated{
			Index: i, ID: u.ID, Name: u.Name, Email: u.Email, RollNumber: u.RollNumber,
		})
	}

	res.Summary = BulkCreateSummary{Total: len(items), Created: len(res.Created), Skipped: len(res.Skipped)}
	s.logger.Info("bulk user import",
		slog.Int("total", res.Summary.Total),
		slog.Int("created", res.Summary.Created),
		slog.Int("skipped", res.Summary.Skipped),
	)
	return res, nil
}

// BulkLinksUpdate identifies a student by UserID or, when that is empty,
// RollNumber, and carries the links to change.
type BulkLinksUpdate struct {
	UserID     string `json:"userId"`
	RollNumber string `json:"rollNumber"`
	model.LinksPatch
}

func (u BulkLinksUpdate) identifier() (value, kind string) {
	if id := strings.TrimSpace(u.UserID); id != "" {
		return id, "userId"
	}
	if roll := strings.TrimSpace(u.RollNumber); roll != "" {
		return roll, "rollNumber"
	}
	return "", ""
}

type BulkLinksSuccess struct {
	Index      int              `json:"index"`
	Identifier string           `json:"identifier"`
	Type       string           `json:"type"`
	Data       *model.UserLinks `json:"data"`
}

type BulkLinksFailure struct {
	Index      int    `json:"index"`
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

type BulkLinksSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type BulkLinksResult struct {
	Summary    BulkLinksSummary   `json:"summary"`
	Successful []BulkLinksSuccess `json:"successfulUpdates"`
	Failed     []BulkLinksFailure `json:"failedUpdates"`
}

// BulkUpdateLinks applies many link patches. Failures are reported per item.
func (s *UserService) BulkUpdateLinks(ctx context.Context, updates []BulkLinksUpdate) (*BulkLinksResult, error) {
	if err := checkBulkSize(len(updates), "updates"); err != nil {
		return nil, err
	}

	res := &BulkLinksResult{Successful: []BulkLinksSuccess{}, Failed: []BulkLinksFailure{}}
	for i, u := range updates {
		id, kind := u.identifier()
		fail := func(reason string) {
			res.Failed = append(res.Failed, BulkLinksFailure{Index: i, Identifier: orNA(id), Reason: reason})
		}

		if kind == "" {
			fail("Either userId or rollNumber must be provided")
			continue
		}
		if u.LinksPatch.Empty() {
			fail("No links provided to update")
			continue
		}

		var (
			l   *model.UserLinks
			err error
		)
		if kind == "userId" {
			l, err = s.links.GetByUserID(ctx, id)
		} else {
			l, err = s.links.GetByRollNumber(ctx, id)
		}
		if err == nil {
			l, err = s.applyPatch(ctx, l, u.LinksPatch)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, apperror.ErrNotFound) {
				fail("User links not found")
			} else {
				fail(reason(err))
			}
			continue
		}
		res.Successful = append(res.Successful, BulkLinksSuccess{Index: i, Identifier: id, Type: kind, Data: l})
	}

	res.Summary = BulkLinksSummary{Total: len(updates), Successful: len(res.Successful), Failed: len(res.Failed)}
	return res, nil
}

func checkBulkSize(n int, what string) error {
	switch {
	case n == 0:
		return apperror.ValidationFailed(what, "The "+what+" array cannot be empty")
	case n > maxBulkItems:
		return apperror.ValidationFailed(what, "Too many "+what+" in one request")
	}
	return nil
}

// reason is the client-facing text of a per-item failure. Internal errors
// are not echoed.
func reason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal error"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

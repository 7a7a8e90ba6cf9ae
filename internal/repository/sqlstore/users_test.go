package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository"
)

// =========================================================================
// CREATE
// =========================================================================

func TestUserCreate_WithLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &model.User{Name: "Alice", Email: "alice@example.com", RollNumber: "CS001", PasswordHash: "hash"}
	links := &model.UserLinks{LeetCode: "alice_lc", Codeforces: "alice_cf"}
	if err := s.Users().Create(ctx, u, links); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("Create() did not fill ID/CreatedAt: %+v", u)
	}

	got, err := s.Links().GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if got.LeetCode != "alice_lc" || got.Codeforces != "alice_cf" || got.RollNumber != "CS001" {
		t.Errorf("links = %+v", got)
	}
}

func TestUserCreate_Duplicates(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "Alice", "alice@example.com", "CS001")

	tests := []struct {
		name  string
		email string
		roll  string
	}{
		{"same email", "alice@example.com", "CS002"},
		{"same roll number", "other@example.com", "CS001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Users().Create(context.Background(), &model.User{Name: "X", Email: tt.email, RollNumber: tt.roll}, nil)
			if !errors.Is(err, apperror.ErrConflict) {
				t.Errorf("expected ErrConflict, got %v", err)
			}
		})
	}
}

func TestUserCreate_MissingOptionalColumnsDoNotCollide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// two GitHub-only accounts: no email, no roll number
	for _, id := range []int64{1, 2} {
		u := &model.User{Name: "gh", GitHubID: id}
		if err := s.Users().Create(ctx, u, nil); err != nil {
			t.Fatalf("Create(github %d) error = %v", id, err)
		}
	}

	got, err := s.Users().GetByGitHubID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByGitHubID() error = %v", err)
	}
	if got.Email != "" || got.RollNumber != "" || got.PasswordHash != "" {
		t.Errorf("NULL columns should read back empty, got %+v", got)
	}
}

// =========================================================================
// READ
// =========================================================================

func TestUserGetters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := createTestUser(t, s, "Bob", "bob@example.com", "CS042")

	byEmail, err := s.Users().GetByEmail(ctx, "bob@example.com")
	if err != nil || byEmail.ID != want.ID {
		t.Errorf("GetByEmail() = %v, %v", byEmail, err)
	}
	byRoll, err := s.Users().GetByRollNumber(ctx, "CS042")
	if err != nil || byRoll.ID != want.ID {
		t.Errorf("GetByRollNumber() = %v, %v", byRoll, err)
	}
	byID, err := s.Users().GetByID(ctx, want.ID)
	if err != nil || byID.Name != "Bob" || byID.PasswordHash != "hash" {
		t.Errorf("GetByID() = %+v, %v", byID, err)
	}

	if _, err := s.Users().GetByID(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Users().GetByRollNumber(ctx, "CS999"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByRollNumber(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUserList_Pagination(t *testing.T) {
	s := newTestStore(t)
	for _, roll := range []string{"A", "B", "C"} {
		createTestUser(t, s, roll, roll+"@example.com", roll)
	}

	page, err := s.Users().List(context.Background(), repository.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("List() returned %d users, want 2", len(page))
	}

	rest, err := s.Users().List(context.Background(), repository.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("second page has %d users, want 1", len(rest))
	}
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUserUpdate_SyncsLinksRollNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "Carol", "carol@example.com", "CS100")

	u.RollNumber = "CS200"
	u.Name = "Carol D."
	if err := s.Users().Update(ctx, u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	links, err := s.Links().GetByRollNumber(ctx, "CS200")
	if err != nil {
		t.Fatalf("links not found under new roll number: %v", err)
	}
	if links.UserID != u.ID {
		t.Errorf("links.UserID = %s, want %s", links.UserID, u.ID)
	}
}

func TestUserUpdate_ConflictAndMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "A", "a@example.com", "R1")
	b := createTestUser(t, s, "B", "b@example.com", "R2")

	b.Email = "a@example.com"
	if err := s.Users().Update(ctx, b); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() to taken email error = %v, want ErrConflict", err)
	}

	ghost := &model.User{ID: "ghost", Name: "ghost"}
	if err := s.Users().Update(ctx, ghost); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "Dan", "dan@example.com", "CS300")
	cert := &model.Certification{UserID: u.ID, Name: "AWS", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
	if err := s.Certifications().Create(ctx, cert); err != nil {
		t.Fatalf("creating certification: %v", err)
	}

	if err := s.Users().Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := s.Links().GetByUserID(ctx, u.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("links survived delete: %v", err)
	}
	if _, err := s.Certifications().Get(ctx, cert.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("certification survived delete: %v", err)
	}
	if err := s.Users().Delete(ctx, u.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

package sqlstore

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
)

var pdfBytes = []byte("%PDF-1.7\nhello")

func createTestDocument(t *testing.T, s *Store, name string) *model.Document {
	t.Helper()
	d := &model.Document{Name: name, ContentType: "application/pdf", Data: pdfBytes}
	if err := s.Documents().Create(context.Background(), d); err != nil {
		t.Fatalf("failed to create document %q: %v", name, err)
	}
	return d
}

func TestDocumentCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := createTestDocument(t, s, "syllabus.pdf")

	if created.Size != int64(len(pdfBytes)) {
		t.Errorf("Size = %d, want %d", created.Size, len(pdfBytes))
	}

	got, err := s.Documents().Get(ctx, "syllabus.pdf")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got.Data, pdfBytes) {
		t.Errorf("Get() data = %q", got.Data)
	}

	info, err := s.Documents().Info(ctx, "syllabus.pdf")
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Data != nil {
		t.Error("Info() must not load content")
	}
	if info.ContentType != "application/pdf" {
		t.Errorf("Info().ContentType = %q", info.ContentType)
	}
}

func TestDocumentCreate_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	createTestDocument(t, s, "notes.pdf")

	err := s.Documents().Create(context.Background(), &model.Document{Name: "notes.pdf", ContentType: "application/pdf", Data: pdfBytes})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate Create() error = %v, want ErrConflict", err)
	}
}

func TestDocumentList_SuffixIsLiteral(t *testing.T) {
	s := newTestStore(t)
	createTestDocument(t, s, "CS001_resume.pdf")
	createTestDocument(t, s, "CS002_resume.pdf")
	createTestDocument(t, s, "CS003xresume.pdf") // "_" must not act as a wildcard
	createTestDocument(t, s, "handbook.pdf")

	all, err := s.Documents().List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List(\"\") returned %d docs, want 4", len(all))
	}

	resumes, err := s.Documents().List(context.Background(), "_resume.pdf")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(resumes) != 2 {
		t.Fatalf("List(_resume.pdf) returned %d docs, want 2", len(resumes))
	}
	// newest first
	if resumes[0].Name != "CS002_resume.pdf" {
		t.Errorf("first résumé = %s, want CS002_resume.pdf", resumes[0].Name)
	}
}

func TestDocumentReplaceAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestDocument(t, s, "plan.pdf")

	replacement := &model.Document{Name: "plan.pdf", ContentType: "application/pdf", Data: []byte("%PDF-2.0 new")}
	if err := s.Documents().Replace(ctx, replacement); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, _ := s.Documents().Get(ctx, "plan.pdf")
	if string(got.Data) != "%PDF-2.0 new" || got.Size != int64(len("%PDF-2.0 new")) {
		t.Errorf("after Replace() got %q (size %d)", got.Data, got.Size)
	}

	if err := s.Documents().Delete(ctx, "plan.pdf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Documents().Get(ctx, "plan.pdf"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
	if err := s.Documents().Replace(ctx, replacement); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Replace(missing) error = %v", err)
	}
	if err := s.Documents().Delete(ctx, "plan.pdf"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestCertifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "Jo", "jo@example.com", "CS700")

	first := &model.Certification{UserID: u.ID, Name: "First", Organization: "Org", ContentType: "image/png", Data: []byte("\x89PNG")}
	second := &model.Certification{UserID: u.ID, Name: "Second", ContentType: "application/pdf", Data: pdfBytes}
	for _, c := range []*model.Certification{first, second} {
		if err := s.Certifications().Create(ctx, c); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list, err := s.Certifications().ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "Second" {
		t.Fatalf("ListByUser() = %+v, want Second first", list)
	}
	if list[0].Data != nil {
		t.Error("ListByUser() must not load content")
	}

	got, err := s.Certifications().Get(ctx, first.ID)
	if err != nil || string(got.Data) != "\x89PNG" || got.Organization != "Org" {
		t.Errorf("Get() = %+v, %v", got, err)
	}

	if err := s.Certifications().Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Certifications().Delete(ctx, first.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}

	// foreign key: unknown user
	orphan := &model.Certification{UserID: "ghost", Name: "X", ContentType: "application/pdf", Data: pdfBytes}
	if err := s.Certifications().Create(ctx, orphan); err == nil {
		t.Error("Create() for unknown user should fail")
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository"
	"github.com/sakif/student-dashboard/internal/validation"
)

// Upload limits. Handlers cap the request body slightly above these so the
// service can answer with a proper validation message.
const (
	MaxDocumentSize      = 10 << 20
	MaxResumeSize        = 5 << 20
	MaxCertificationSize = 10 << 20
)

// resumeSuffix names résumés in the document store: "<roll>_resume.pdf".
const resumeSuffix = "_resume.pdf"

// ResumeName is the document name of a student's résumé.
func ResumeName(rollNumber string) string {
	return rollNumber + resumeSuffix
}

// CertificationInput is the form part of a certification upload.
type CertificationInput struct {
	UserID       string `json:"userId"       validate:"notblank"`
	Name         string `json:"name"         validate:"notblank,max=200"`
	Organization string `json:"organization" validate:"notblank,max=200"`
}

// DocumentService stores uploaded files: named PDFs, student résumés and
// certifications.
type DocumentService struct {
	docs     repository.DocumentRepository
	certs    repository.CertificationRepository
	users    repository.UserRepository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewDocumentService(
	docs repository.DocumentRepository,
	certs repository.CertificationRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		docs:     docs,
		certs:    certs,
		users:    users,
		validate: validate,
		logger:   logger,
	}
}

// checkFile validates size and sniffed type and returns the content type.
func checkFile(data []byte, limit int64, allowed ...string) (string, error) {
	if len(data) == 0 {
		return "", apperror.ValidationFailed("file", "No file uploaded")
	}
	if int64(len(data)) > limit {
		return "", apperror.ValidationFailed("file", fmt.Sprintf("File exceeds the %d MB limit", limit>>20))
	}
	ct := sniff(data)
	for _, a := range allowed {
		if ct == a {
			return ct, nil
		}
	}
	if len(allowed) == 1 && allowed[0] == TypePDF {
		return "", apperror.ValidationFailed("file", "Please upload a PDF file")
	}
	return "", apperror.ValidationFailed("file", "Only PDF and image files are allowed")
}

// ---- named PDFs ----

// UploadPDF stores a new named PDF. Names are unique.
func (s *DocumentService) UploadPDF(ctx context.Context, name string, data []byte, uploadedBy string) (*model.Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Please provide a PDF name")
	}
	ct, err := checkFile(data, MaxDocumentSize, TypePDF)
	if err != nil {
		return nil, err
	}

	d := &model.Document{Name: name, ContentType: ct, Size: int64(len(data)), Data: data, UploadedBy: uploadedBy}
	if err := s.docs.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("service/document: storing %q: %w", name, err)
	}
	s.logger.Info("pdf stored", slog.String("name", name), slog.Int64("size", d.Size))
	return d, nil
}

func (s *DocumentService) PDF(ctx context.Context, name string) (*model.Document, error) {
	d, err := s.docs.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service/document: %w", err)
	}
	return d, nil
}

func (s *DocumentService) PDFInfo(ctx context.Context, name string) (*model.Document, error) {
	d, err := s.docs.Info(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service/document: %w", err)
	}
	return d, nil
}

// ListPDFs returns metadata of every stored document, newest first.
func (s *DocumentService) ListPDFs(ctx context.Context) ([]model.Document, error) {
	docs, err := s.docs.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("service/document: %w", err)
	}
	return docs, nil
}

// ReplacePDF overwrites the content of an existing document.
func (s *DocumentService) ReplacePDF(ctx context.Context, name string, data []byte) (*model.Document, error) {
	ct, err := checkFile(data, MaxDocumentSize, TypePDF)
	if err != nil {
		return nil, err
	}
	d := &model.Document{Name: name, ContentType: ct, Size: int64(len(data)), Data: data}
	if err := s.docs.Replace(ctx, d); err != nil {
		return nil, fmt.Errorf("service/document: replacing %q: %w", name, err)
	}
	return s.PDFInfo(ctx, name)
}

func (s *DocumentService) DeletePDF(ctx context.Context, name string) error {
	if err := s.docs.Delete(ctx, name); err != nil {
		return fmt.Errorf("service/document: %w", err)
	}
	return nil
}

// ---- résumés ----

// UploadResume stores or replaces the résumé of rollNumber. created reports
// whether a new document was made. Only the student may upload their own.
func (s *DocumentService) UploadResume(ctx context.Context, actorID, rollNumber string, data []byte) (doc *model.Document, created bool, err error) {
	student, err := s.student(ctx, rollNumber)
	if err != nil {
		return nil, false, err
	}
	if err := authorize(actorID, student.ID); err != nil {
		return nil, false, err
	}
	ct, err := checkFile(data, MaxResumeSize, TypePDF)
	if err != nil {
		return nil, false, err
	}

	d := &model.Document{
		Name:        ResumeName(student.RollNumber),
		ContentType: ct,
		Size:        int64(len(data)),
		Data:        data,
		UploadedBy:  actorID,
	}

	err = s.docs.Replace(ctx, d)
	if errors.Is(err, apperror.ErrNotFound) {
		err = s.docs.Create(ctx, d)
		created = true
	}
	if err != nil {
		return nil, false, fmt.Errorf("service/document: storing resume of %s: %w", rollNumber, err)
	}

	info, err := s.docs.Info(ctx, d.Name)
	if err != nil {
		return nil, false, fmt.Errorf("service/document: %w", err)
	}
	return info, created, nil
}

func (s *DocumentService) Resume(ctx context.Context, rollNumber string) (*model.Document, error) {
	return s.resume(ctx, rollNumber, s.docs.Get)
}

func (s *DocumentService) ResumeInfo(ctx context.Context, rollNumber string) (*model.Document, error) {
	return s.resume(ctx, rollNumber, s.docs.Info)
}

// ResumeExists reports whether rollNumber has a résumé on file.
func (s *DocumentService) ResumeExists(ctx context.Context, rollNumber string) (bool, error) {
	_, err := s.ResumeInfo(ctx, rollNumber)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperror.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ListResumes returns metadata of every résumé, newest first.
func (s *DocumentService) ListResumes(ctx context.Context) ([]model.Document, error) {
	docs, err := s.docs.List(ctx, resumeSuffix)
	if err != nil {
		return nil, fmt.Errorf("service/document: %w", err)
	}
	return docs, nil
}

// DeleteResume removes the résumé of rollNumber. Only its owner may.
func (s *DocumentService) DeleteResume(ctx context.Context, actorID, rollNumber string) error {
	student, err := s.student(ctx, rollNumber)
	if err != nil {
		return err
	}
	if err := authorize(actorID, student.ID); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, ResumeName(student.RollNumber)); err != nil {
		return resumeErr(err)
	}
	return nil
}

func (s *DocumentService) resume(ctx context.Context, rollNumber string, load func(context.Context, string) (*model.Document, error)) (*model.Document, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	if rollNumber == "" {
		return nil, apperror.ValidationFailed("rollNumber", "Roll number is required")
	}
	d, err := load(ctx, ResumeName(rollNumber))
	if err != nil {
		return nil, resumeErr(err)
	}
	return d, nil
}

func (s *DocumentService) student(ctx context.Context, rollNumber string) (*model.User, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	if rollNumber == "" {
		return nil, apperror.ValidationFailed("rollNumber", "Roll number is required")
	}
	u, err := s.users.GetByRollNumber(ctx, rollNumber)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("Student not found with this roll number")
		}
		return nil, fmt.Errorf("service/document: %w", err)
	}
	return u, nil
}

func resumeErr(err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.NotFoundMessage("Resume not found for this student")
	}
	return fmt.Errorf("service/document: %w", err)
}

// ---- certifications ----

// UploadCertification attaches a PDF or image certificate to the actor's
// own profile.
func (s *DocumentService) UploadCertification(ctx context.Context, actorID string, in CertificationInput, data []byte) (*model.Certification, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Name = strings.TrimSpace(in.Name)
	in.Organization = strings.TrimSpace(in.Organization)
	if err := validation.Struct(s.validate, &in); err != nil {
		return nil, err
	}
	if err := authorize(actorID, in.UserID); err != nil {
		return nil, err
	}
	ct, err := checkFile(data, MaxCertificationSize, TypePDF, TypePNG, TypeJPEG)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("service/document: %w", err)
	}

	c := &model.Certification{
		UserID:       in.UserID,
		Name:         in.Name,
		Organization: in.Organization,
		ContentType:  ct,
		Size:         int64(len(data)),
		Data:         data,
	}
	if err := s.certs.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("service/document: storing certification: %w", err)
	}
	c.Data = nil
	return c, nil
}

func (s *DocumentService) Certifications(ctx context.Context, userID string) ([]model.Certification, error) {
	certs, err := s.certs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/document: %w", err)
	}
	return certs, nil
}

func (s *DocumentService) Certification(ctx context.Context, id string) (*model.Certification, error) {
	c, err := s.certs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/document: %w", err)
	}
	return c, nil
}

// DeleteCertification removes a certificate. Only its owner may.
func (s *DocumentService) DeleteCertification(ctx context.Context, actorID, id string) error {
	c, err := s.certs.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("service/document: %w", err)
	}
	if err := authorize(actorID, c.UserID); err != nil {
		return err
	}
	if err := s.certs.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/document: %w", err)
	}
	return nil
}

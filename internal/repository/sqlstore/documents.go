package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository"
)

// compile-time checks
var (
	_ repository.DocumentRepository      = (*DocumentStore)(nil)
	_ repository.CertificationRepository = (*CertificationStore)(nil)
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const documentMeta = `id, name, content_type, size, uploaded_by, created_at, updated_at`

type DocumentStore struct {
	db *sqlx.DB
}

func documentNotFound(name string) *apperror.AppError {
	return apperror.NotFoundMessage("Document not found: " + name)
}

func (s *DocumentStore) Create(ctx context.Context, d *model.Document) error {
	now := time.Now().UTC()
	d.ID = xid.New().String()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.Size = int64(len(d.Data))

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO documents (id, name, content_type, size, uploaded_by, data, created_at, updated_at)
		 VALUES (:id, :name, :content_type, :size, :uploaded_by, :data, :created_at, :updated_at)`,
		d,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating document %q: %w", d.Name,
			translate(err, nil, "A document with this name already exists"))
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, name string) (*model.Document, error) {
	var d model.Document
	query := s.db.Rebind(`SELECT ` + documentMeta + `, data FROM documents WHERE name = ?`)
	if err := s.db.GetContext(ctx, &d, query, name); err != nil {
		return nil, translate(err, documentNotFound(name), "")
	}
	return &d, nil
}

func (s *DocumentStore) Info(ctx context.Context, name string) (*model.Document, error) {
	var d model.Document
	query := s.db.Rebind(`SELECT ` + documentMeta + ` FROM documents WHERE name = ?`)
	if err := s.db.GetContext(ctx, &d, query, name); err != nil {
		return nil, translate(err, documentNotFound(name), "")
	}
	return &d, nil
}

func (s *DocumentStore) List(ctx context.Context, suffix string) ([]model.Document, error) {
	docs := []model.Document{}
	query := `SELECT ` + documentMeta + ` FROM documents`
	var args []any
	if suffix != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscaper.Replace(suffix))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	if err := s.db.SelectContext(ctx, &docs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentStore) Replace(ctx context.Context, d *model.Document) error {
	d.UpdatedAt = time.Now().UTC()
	d.Size = int64(len(d.Data))

	res, err := s.db.NamedExecContext(ctx,
		`UPDATE documents SET content_type = :content_type, size = :size, data = :data,
		 uploaded_by = :uploaded_by, updated_at = :updated_at WHERE name = :name`,
		d,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: replacing document %q: %w", d.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return documentNotFound(d.Name)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM documents WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting document %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return documentNotFound(name)
	}
	return nil
}

const certificationMeta = `id, user_id, name, organization, content_type, size, created_at`

type CertificationStore struct {
	db *sqlx.DB
}

func (s *CertificationStore) Create(ctx context.Context, c *model.Certification) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now().UTC()
	c.Size = int64(len(c.Data))

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO certifications (id, user_id, name, organization, content_type, size, data, created_at)
		 VALUES (:id, :user_id, :name, :organization, :content_type, :size, :data, :created_at)`,
		c,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating certification for %s: %w", c.UserID, err)
	}
	return nil
}

func (s *CertificationStore) Get(ctx context.Context, id string) (*model.Certification, error) {
	var c model.Certification
	query := s.db.Rebind(`SELECT ` + certificationMeta + `, data FROM certifications WHERE id = ?`)
	if err := s.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, translate(err, apperror.NotFound("certification", id), "")
	}
	return &c, nil
}

func (s *CertificationStore) ListByUser(ctx context.Context, userID string) ([]model.Certification, error) {
	certs := []model.Certification{}
	query := s.db.Rebind(`SELECT ` + certificationMeta + ` FROM certifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	if err := s.db.SelectContext(ctx, &certs, query, userID); err != nil {
		return nil, fmt.Errorf("sqlstore: listing certifications of %s: %w", userID, err)
	}
	return certs, nil
}

func (s *CertificationStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM certifications WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting certification %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("certification", id)
	}
	return nil
}

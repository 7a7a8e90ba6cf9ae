package model

import "time"

// Document is a named binary blob: uploaded PDFs and student résumés.
// Data is only loaded by the download paths; list/info queries leave it nil.
type Document struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	ContentType string    `json:"contentType" db:"content_type"`
	Size        int64     `json:"size"        db:"size"`
	UploadedBy  string    `json:"uploadedBy,omitempty" db:"uploaded_by"`
	Data        []byte    `json:"-"           db:"data"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// Certification is a certificate file a student attached to their profile.
type Certification struct {
	ID           string    `json:"id"           db:"id"`
	UserID       string    `json:"userId"       db:"user_id"`
	Name         string    `json:"name"         db:"name"`
	Organization string    `json:"organization" db:"organization"`
	ContentType  string    `json:"contentType"  db:"content_type"`
	Size         int64     `json:"size"         db:"size"`
	Data         []byte    `json:"-"            db:"data"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
}

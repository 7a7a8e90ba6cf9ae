package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/student-dashboard/internal/auth"
	"github.com/sakif/student-dashboard/internal/service"
)

// DocumentHandler serves /api/pdfs, /api/resumes and /api/certifications.
// All three store files through service.DocumentService.
type DocumentHandler struct {
	svc    *service.DocumentService
	logger *slog.Logger
}

func NewDocumentHandler(svc *service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, logger: logger}
}

// ---- named PDFs ----

// HTTP: POST /api/pdfs (multipart: pdf, name)
func (h *DocumentHandler) HandleUploadPDF(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r, "pdf", service.MaxDocumentSize)
	if err != nil {
		writeError(w, err)
		return
	}
	uploadedBy, _ := auth.UserIDFromContext(r.Context())
	doc, err := h.svc.UploadPDF(r.Context(), r.FormValue("name"), data, uploadedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "PDF uploaded successfully", doc)
}

// HTTP: GET /api/pdfs
func (h *DocumentHandler) HandleListPDFs(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListPDFs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, docs)
}

// HTTP: GET /api/pdfs/{name}
func (h *DocumentHandler) HandleGetPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.PDF(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, "inline", doc.Name, doc.ContentType, doc.Data)
}

// HTTP: GET /api/pdfs/{name}/info
func (h *DocumentHandler) HandlePDFInfo(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.PDFInfo(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", doc)
}

// HTTP: PUT /api/pdfs/{name} (multipart: pdf)
func (h *DocumentHandler) HandleReplacePDF(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r, "pdf", service.MaxDocumentSize)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := h.svc.ReplacePDF(r.Context(), chi.URLParam(r, "name"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "PDF updated successfully", doc)
}

// HTTP: DELETE /api/pdfs/{name}
func (h *DocumentHandler) HandleDeletePDF(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePDF(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "PDF deleted successfully", nil)
}

// ---- résumés ----

// HTTP: GET /api/resumes
func (h *DocumentHandler) HandleListResumes(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListResumes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, docs)
}

// HandleUploadResume creates or replaces the caller's résumé.
//
// HTTP: POST /api/resumes/{rollNumber} (multipart: resume)
// 201 when the résumé is new, 200 when it replaced an existing one.
func (h *DocumentHandler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := readUpload(w, r, "resume", service.MaxResumeSize)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, created, err := h.svc.UploadResume(r.Context(), actorID, chi.URLParam(r, "rollNumber"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	if created {
		writeData(w, http.StatusCreated, "Resume uploaded successfully", doc)
		return
	}
	writeData(w, http.StatusOK, "Resume updated successfully", doc)
}

// HTTP: GET /api/resumes/{rollNumber}
func (h *DocumentHandler) HandleGetResume(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Resume(r.Context(), chi.URLParam(r, "rollNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, "inline", doc.Name, doc.ContentType, doc.Data)
}

// HTTP: GET /api/resumes/{rollNumber}/info
func (h *DocumentHandler) HandleResumeInfo(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.ResumeInfo(r.Context(), chi.URLParam(r, "rollNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", doc)
}

// HTTP: GET /api/resumes/{rollNumber}/exists
func (h *DocumentHandler) HandleResumeExists(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.ResumeExists(r.Context(), chi.URLParam(r, "rollNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]bool{"exists": ok})
}

// HTTP: DELETE /api/resumes/{rollNumber}
func (h *DocumentHandler) HandleDeleteResume(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.DeleteResume(r.Context(), actorID, chi.URLParam(r, "rollNumber")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Resume deleted successfully", nil)
}

// ---- certifications ----

// HTTP: POST /api/certifications (multipart: certificate, name, organization, userId)
func (h *DocumentHandler) HandleUploadCertification(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := readUpload(w, r, "certificate", service.MaxCertificationSize)
	if err != nil {
		writeError(w, err)
		return
	}
	in := service.CertificationInput{
		UserID:       r.FormValue("userId"),
		Name:         r.FormValue("name"),
		Organization: r.FormValue("organization"),
	}
	c, err := h.svc.UploadCertification(r.Context(), actorID, in, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "Certification uploaded successfully", c)
}

// HTTP: GET /api/certifications/user/{userId}
func (h *DocumentHandler) HandleListCertifications(w http.ResponseWriter, r *http.Request) {
	certs, err := h.svc.Certifications(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, certs)
}

// HTTP: GET /api/certifications/{id}
func (h *DocumentHandler) HandleGetCertification(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Certification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, "attachment", c.Name+extensionFor(c.ContentType), c.ContentType, c.Data)
}

// HTTP: DELETE /api/certifications/{id}
func (h *DocumentHandler) HandleDeleteCertification(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.DeleteCertification(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Certification deleted successfully", nil)
}

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/student-dashboard/internal/auth"
	"github.com/sakif/student-dashboard/internal/handler"
	"github.com/sakif/student-dashboard/internal/logger"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository/sqlstore"
	"github.com/sakif/student-dashboard/internal/service"
	"github.com/sakif/student-dashboard/internal/validation"
)

var (
	pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n%%EOF")
	pngBytes = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "IHDR"...)
)

// envelope mirrors handler.Response with raw payloads for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Summary json.RawMessage `json:"summary"`
	Errors  json.RawMessage `json:"errors"`
}

// stubAnalytics answers every request with a fixed result or error.
type stubAnalytics struct {
	result  *model.CombinedAnalytics
	err     error
	handles []model.PlatformHandle
	refresh bool
}

func (s *stubAnalytics) Combined(_ context.Context, handles []model.PlatformHandle, refresh bool) (*model.CombinedAnalytics, error) {
	s.handles, s.refresh = handles, refresh
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type apiFixture struct {
	router    http.Handler
	tokens    *auth.TokenService
	auth      *service.AuthService
	analytics *stubAnalytics
}

// newAPI wires real services over an in-memory store behind the same
// routes the server mounts.
func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	log := logger.Discard()
	v := validation.New()
	passwords := auth.NewPasswordService(bcrypt.MinCost)
	stub := &stubAnalytics{result: &model.CombinedAnalytics{Stats: model.Stats{TotalSolved: 42}}}

	authSvc := service.NewAuthService(store.Users(), store.Links(), tokens, passwords, v, log)
	userSvc := service.NewUserService(store.Users(), store.Links(), passwords, stub, v, log)
	docSvc := service.NewDocumentService(store.Documents(), store.Certifications(), store.Users(), v, log)

	authH := handler.NewAuthHandler(authSvc, nil, handler.CookieConfig{TTL: tokens.TTL()}, "/", log)
	userH := handler.NewUserHandler(userSvc, log)
	docH := handler.NewDocumentHandler(docSvc, log)
	platformH := handler.NewPlatformHandler(stub, log)
	requireAuth := auth.RequireAuth(tokens)

	r := chi.NewRouter()
	r.Get("/api/platform/combined", platformH.HandleCombined)

	r.Post("/api/auth/register", authH.HandleRegister)
	r.Post("/api/auth/login", authH.HandleLogin)
	r.Post("/api/auth/logout", authH.HandleLogout)
	r.With(requireAuth).Get("/api/auth/me", authH.HandleMe)

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", userH.HandleList)
		r.Get("/{id}", userH.HandleGet)
		r.Get("/{id}/links", userH.HandleGetLinks)
		r.Get("/{id}/analytics", userH.HandleAnalytics)
		r.Get("/links/{rollNumber}", userH.HandleGetLinksByRollNumber)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", userH.HandleCreate)
			r.Put("/{id}", userH.HandleUpdate)
			r.Delete("/{id}", userH.HandleDelete)
			r.Put("/{id}/links", userH.HandleUpdateLinks)
			r.Put("/links/{rollNumber}", userH.HandleUpdateLinksByRollNumber)
			r.Post("/bulk/create", userH.HandleBulkCreate)
			r.Put("/links/bulk/update", userH.HandleBulkUpdateLinks)
		})
	})

	r.Route("/api/pdfs", func(r chi.Router) {
		r.Get("/", docH.HandleListPDFs)
		r.Get("/{name}", docH.HandleGetPDF)
		r.Get("/{name}/info", docH.HandlePDFInfo)
		r.With(requireAuth).Post("/", docH.HandleUploadPDF)
		r.With(requireAuth).Put("/{name}", docH.HandleReplacePDF)
		r.With(requireAuth).Delete("/{name}", docH.HandleDeletePDF)
	})
	r.Route("/api/resumes", func(r chi.Router) {
		r.Get("/", docH.HandleListResumes)
		r.Get("/{rollNumber}", docH.HandleGetResume)
		r.Get("/{rollNumber}/info", docH.HandleResumeInfo)
		r.Get("/{rollNumber}/exists", docH.HandleResumeExists)
		r.With(requireAuth).Post("/{rollNumber}", docH.HandleUploadResume)
		r.With(requireAuth).Delete("/{rollNumber}", docH.HandleDeleteResume)
	})
	r.Route("/api/certifications", func(r chi.Router) {
		r.Get("/user/{userId}", docH.HandleListCertifications)
		r.Get("/{id}", docH.HandleGetCertification)
		r.With(requireAuth).Post("/", docH.HandleUploadCertification)
		r.With(requireAuth).Delete("/{id}", docH.HandleDeleteCertification)
	})

	return &apiFixture{router: r, tokens: tokens, auth: authSvc, analytics: stub}
}

// do sends a JSON request, authenticated when token is non-empty.
func (f *apiFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			r = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			r = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

// upload sends a multipart form with one file part.
func (f *apiFixture) upload(t *testing.T, method, path, field string, data []byte, fields map[string]string, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		fw, err := mw.CreateFormFile(field, "upload.bin")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

// register creates an account and returns its ID and token.
func (f *apiFixture) register(t *testing.T, email, roll string) (string, string) {
	t.Helper()
	res, err := f.auth.Register(context.Background(), service.RegisterInput{
		Name: "Student " + roll, Email: email, Password: "secret123", RollNumber: roll,
	})
	require.NoError(t, err)
	return res.User.ID, res.Token
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env), "body: %s", rr.Body.String())
	return env
}

func jsonUnmarshal(raw json.RawMessage, dst any) error { return json.Unmarshal(raw, dst) }

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

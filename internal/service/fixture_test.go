package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/student-dashboard/internal/auth"
	"github.com/sakif/student-dashboard/internal/logger"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository/sqlstore"
	"github.com/sakif/student-dashboard/internal/validation"
)

// fakeAnalytics records the handle-sets it is asked for.
type fakeAnalytics struct {
	mu    sync.Mutex
	calls [][]model.PlatformHandle
	err   error
}

func (f *fakeAnalytics) Combined(_ context.Context, handles []model.PlatformHandle, _ bool) (*model.CombinedAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, handles)
	if f.err != nil {
		return nil, f.err
	}
	return &model.CombinedAnalytics{Stats: model.Stats{TotalSolved: 7}}, nil
}

type fixture struct {
	store     *sqlstore.Store
	tokens    *auth.TokenService
	auth      *AuthService
	users     *UserService
	docs      *DocumentService
	analytics *fakeAnalytics
}

// newFixture wires every service to a fresh in-memory SQLite store.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)

	passwords := auth.NewPasswordService(bcrypt.MinCost)
	v := validation.New()
	log := logger.Discard()
	fa := &fakeAnalytics{}

	return &fixture{
		store:     store,
		tokens:    tokens,
		auth:      NewAuthService(store.Users(), store.Links(), tokens, passwords, v, log),
		users:     NewUserService(store.Users(), store.Links(), passwords, fa, v, log),
		docs:      NewDocumentService(store.Documents(), store.Certifications(), store.Users(), v, log),
		analytics: fa,
	}
}

// register creates an account through the public flow.
func (f *fixture) register(t *testing.T, email, roll string) *AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{
		Name: "Student " + roll, Email: email, Password: "secret123", RollNumber: roll,
	})
	require.NoError(t, err)
	return res
}

func strPtr(s string) *string { return &s }

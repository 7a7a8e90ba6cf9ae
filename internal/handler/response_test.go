package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/student-dashboard/internal/apperror"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", apperror.ValidationFailed("email", "email is required"), http.StatusBadRequest, "email is required"},
		{"unauthorized", apperror.Unauthorized("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{"forbidden", apperror.Forbidden("Not authorized to modify this user"), http.StatusForbidden, "Not authorized to modify this user"},
		{"not found wrapped", fmt.Errorf("service: %w", apperror.NotFoundMessage("Document not found: cv")), http.StatusNotFound, "Document not found: cv"},
		{"conflict", apperror.Conflict("A document with this name already exists"), http.StatusConflict, "A document with this name already exists"},
		{"upstream", apperror.Upstream("leetcode", nil), http.StatusBadGateway, "leetcode request failed"},
		{"unknown error hides details", errors.New("pq: relation users does not exist"), http.StatusInternalServerError, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body Response
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}

func TestWriteError_ListsEveryValidationMessage(t *testing.T) {
	err := &apperror.AppError{
		Err:     apperror.ErrValidation,
		Message: "name is required",
		Details: []string{"name is required", "email is required"},
	}
	rr := httptest.NewRecorder()
	writeError(rr, err)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, []any{"name is required", "email is required"}, body["errors"])
}

func TestWriteList_IncludesCount(t *testing.T) {
	rr := httptest.NewRecorder()
	writeList(rr, []string{})

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, []any{}, body["data"])
}

func TestDecodeJSON(t *testing.T) {
	var dst struct{ Name string }

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.EqualError(t, err, "Invalid JSON body")
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"name":"` + strings.Repeat("a", maxJSONBody) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		assert.EqualError(t, err, "Request body too large")
	})
}

package apperror

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "email is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("User already exists with this email"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "RateLimited wraps ErrRateLimited",
			err:       RateLimited("codeforces", time.Second),
			target:    ErrRateLimited,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("leetcode", errors.New("EOF")),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "wrapped twice still matches",
			err:       fmt.Errorf("service: %w", fmt.Errorf("repo: %w", NotFound("user", "x"))),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Upstream does NOT match ErrRateLimited",
			err:       Upstream("leetcode", nil),
			target:    ErrRateLimited,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, errors.Is(tt.err, tt.target))
		})
	}
}

func TestErrorsAs_RecoversMessage(t *testing.T) {
	err := fmt.Errorf("handler: %w", ValidationFailed("name", "name is required"))

	var appErr *AppError
	if assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, "name is required", appErr.Message)
		assert.Equal(t, "name", appErr.Field)
	}
}

func TestAggregateFailure_ListsEveryPlatform(t *testing.T) {
	err := AggregateFailure([]PlatformFailure{
		{Platform: "leetcode", Handle: "a", Kind: "not_found", Reason: "user not found"},
		{Platform: "codeforces", Handle: "b", Kind: "upstream_error", Reason: "timeout"},
	})

	assert.ErrorIs(t, err, ErrAggregateFailure)
	assert.Contains(t, err.Error(), "leetcode: user not found")
	assert.Contains(t, err.Error(), "codeforces: timeout")

	failures, ok := err.Details.([]PlatformFailure)
	assert.True(t, ok)
	assert.Len(t, failures, 2)
}

func TestKindAndRetryable(t *testing.T) {
	tests := []struct {
		err       error
		kind      string
		retryable bool
	}{
		{NotFound("user", "1"), "not_found", false},
		{ValidationFailed("", "bad"), "validation_error", false},
		{RateLimited("leetcode", 0), "rate_limited", true},
		{Upstream("codeforces", nil), "upstream_error", true},
		{AggregateFailure(nil), "aggregate_failure", false},
		{errors.New("boom"), "internal_error", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.kind, Kind(tt.err))
			assert.Equal(t, tt.retryable, Retryable(tt.err))
		})
	}
}

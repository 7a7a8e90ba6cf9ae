package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/service"
)

func TestUserHandler_CRUD(t *testing.T) {
	f := newAPI(t)
	aliceID, aliceToken := f.register(t, "alice@example.com", "CS-001")
	bobID, _ := f.register(t, "bob@example.com", "CS-002")

	t.Run("list", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/users?limit=10", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)
		env := decode(t, rr)
		require.NotNil(t, env.Count)
		assert.Equal(t, 2, *env.Count)
	})

	t.Run("bad limit", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/users?limit=-1", nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("get unknown", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/users/nope", nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("update needs a session", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/users/"+aliceID, map[string]string{"name": "Al"}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("update someone else is forbidden", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/users/"+bobID, map[string]string{"name": "Robert"}, aliceToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("update own roll number", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/users/"+aliceID, map[string]string{"rollNumber": "CS-100"}, aliceToken)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var u model.User
		decodeData(t, decode(t, rr), &u)
		assert.Equal(t, "CS-100", u.RollNumber)

		rr = f.do(t, http.MethodGet, "/api/users/links/CS-100", nil, "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("email taken", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/users/"+aliceID, map[string]string{"email": "bob@example.com"}, aliceToken)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("delete own account", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/api/users/"+aliceID, nil, aliceToken)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = f.do(t, http.MethodGet, "/api/users/"+aliceID+"/links", nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUserHandler_Links(t *testing.T) {
	f := newAPI(t)
	id, token := f.register(t, "alice@example.com", "CS-001")

	rr := f.do(t, http.MethodPut, "/api/users/"+id+"/links", map[string]string{
		"leetcode": "alice_lc", "codeforces": "alice_cf",
	}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPut, "/api/users/links/CS-001", map[string]string{"codeforces": ""}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var links model.UserLinks
	decodeData(t, decode(t, rr), &links)
	assert.Equal(t, "alice_lc", links.LeetCode)
	assert.Empty(t, links.Codeforces)

	t.Run("analytics uses the stored handles", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/users/"+id+"/analytics", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var got model.CombinedAnalytics
		decodeData(t, decode(t, rr), &got)
		assert.Equal(t, 42, got.Stats.TotalSolved)
		assert.Equal(t, []model.PlatformHandle{{Platform: "leetcode", Handle: "alice_lc"}}, f.analytics.handles)
	})
}

func TestUserHandler_Analytics_NoHandles(t *testing.T) {
	f := newAPI(t)
	id, _ := f.register(t, "alice@example.com", "CS-001")

	rr := f.do(t, http.MethodGet, "/api/users/"+id+"/analytics", nil, "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Please add your LeetCode or Codeforces handle", decode(t, rr).Message)
}

func TestUserHandler_Bulk(t *testing.T) {
	f := newAPI(t)
	_, token := f.register(t, "admin@example.com", "ADM-1")

	t.Run("create", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/users/bulk/create", map[string]any{
			"users": []map[string]string{
				{"name": "A", "email": "a@example.com", "password": "secret123", "rollNumber": "B-1"},
				{"name": "B", "email": "a@example.com", "password": "secret123", "rollNumber": "B-2"},
				{"name": "C", "email": "c@example.com", "password": "x", "rollNumber": "B-3"},
			},
		}, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		env := decode(t, rr)
		var res service.BulkCreateResult
		decodeData(t, env, &res)
		assert.Equal(t, service.BulkCreateSummary{Total: 3, Created: 1, Skipped: 2}, res.Summary)
		assert.NotEmpty(t, env.Summary)
	})

	t.Run("empty batch", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/users/bulk/create", map[string]any{"users": []any{}}, token)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires a session", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/users/bulk/create", map[string]any{"users": []any{}}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("update links", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/users/links/bulk/update", map[string]any{
			"updates": []map[string]string{
				{"rollNumber": "B-1", "leetcode": "b1_lc"},
				{"rollNumber": "missing", "leetcode": "x"},
				{"leetcode": "no-id"},
			},
		}, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var res service.BulkLinksResult
		decodeData(t, decode(t, rr), &res)
		assert.Equal(t, service.BulkLinksSummary{Total: 3, Successful: 1, Failed: 2}, res.Summary)
		assert.Equal(t, "b1_lc", res.Successful[0].Data.LeetCode)
	})
}

package transport

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRoutes(t *testing.T) {
	api := newTestAPI(t)
	jane := api.register("jane@example.com")
	api.register("john@example.com")

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/user/profile", nil, "").Code)

	w := api.do(http.MethodGet, "/api/user/profile", nil, jane)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane@example.com", data[map[string]any](t, w)["email"])

	w = api.do(http.MethodPut, "/api/user/profile", map[string]string{"email": "john@example.com"}, jane)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already exists", decodeEnvelope(t, w).Message)

	w = api.do(http.MethodPut, "/api/user/profile", map[string]string{"email": "bad"}, jane)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPut, "/api/user/profile", map[string]string{"firstName": "Jane", "phone": "+1 555 0100"}, jane)
	require.Equal(t, http.StatusOK, w.Code)
	profile := data[map[string]any](t, w)
	assert.Equal(t, "Jane", profile["firstName"])
	assert.Equal(t, "+1 555 0100", profile["phone"])
}

func TestChangePasswordRoute(t *testing.T) {
	api := newTestAPI(t)
	jane := api.register("jane@example.com")

	w := api.do(http.MethodPut, "/api/user/change-password", map[string]string{"currentPassword": "wrong-one", "newPassword": "secret2"}, jane)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Current password is incorrect", decodeEnvelope(t, w).Message)

	w = api.do(http.MethodPut, "/api/user/change-password", map[string]string{"currentPassword": "secret1", "newPassword": "secret2"}, jane)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "jane@example.com", "password": "secret2"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteAccountRoute(t *testing.T) {
	api := newTestAPI(t)
	jane := api.register("jane@example.com")

	w := api.do(http.MethodDelete, "/api/user/account", nil, jane)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Account deleted successfully", decodeEnvelope(t, w).Message)

	// the token outlives the account
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/user/profile", nil, jane).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/user/account", nil, jane).Code)
}

func TestAdminUserRoutes(t *testing.T) {
	api := newTestAPI(t)
	admin := api.admin()
	customer := api.register("jane@example.com")

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/admin/users", nil, customer).Code)

	w := api.do(http.MethodPost, "/api/admin/users", map[string]string{"email": "ops@example.com", "password": "secret1", "role": "ADMIN"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	opsID := data[map[string]any](t, w)["id"].(string)

	w = api.do(http.MethodPost, "/api/admin/users", map[string]string{"email": "x@example.com", "password": "secret1", "role": "ROOT"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/admin/users?role=ADMIN&limit=10", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 2, env.Pagination.Total)

	w = api.do(http.MethodGet, "/api/admin/users?search=jane", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data[[]map[string]any](t, w), 1)

	w = api.do(http.MethodPatch, "/api/admin/users/"+opsID+"/role", map[string]string{"role": "CUSTOMER"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CUSTOMER", data[map[string]any](t, w)["role"])

	w = api.do(http.MethodPatch, "/api/admin/users/"+opsID, map[string]string{"lastName": "Ops", "password": "rotated1"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ops", data[map[string]any](t, w)["lastName"])

	w = api.do(http.MethodGet, "/api/admin/users/stats/overview", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{
		"total":         json.Number("3"),
		"admins":        json.Number("1"),
		"customers":     json.Number("2"),
		"recentSignups": json.Number("3"),
	}, data[map[string]any](t, w))

	w = api.do(http.MethodDelete, "/api/admin/users/"+opsID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/admin/users/"+opsID, nil, admin).Code)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	api := newTestAPI(t)
	admin := api.admin()

	claims, err := api.tokens.Parse(admin)
	require.NoError(t, err)

	w := api.do(http.MethodDelete, "/api/admin/users/"+claims.Subject, nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodDelete, "/api/admin/users/nope", nil, admin).Code)
}

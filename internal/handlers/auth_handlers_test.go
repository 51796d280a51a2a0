package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbelyakov/sales_crm/internal/hash"
	"github.com/mbelyakov/sales_crm/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{
		"name":     "Alice",
		"email":    "a@x.com",
		"password": "hunter2",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/auth/register", payload)
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.NotEmpty(t, body["access_token"])
	require.Equal(t, "bearer", body["token_type"])

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "a@x.com").First(&user).Error)
	require.Equal(t, "sales_rep", user.Role)
	require.NotEqual(t, "hunter2", user.PasswordHash)
	require.NotEmpty(t, user.PasswordSalt)

	// the token resolves back to the new user
	sub, err := env.Tokens.Verify(body["access_token"].(string))
	require.NoError(t, err)
	require.Equal(t, user.ID, sub)

	var logs []models.AuditLog
	require.NoError(t, env.DB.Where("action = ?", "REGISTER").Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, user.ID, *logs[0].UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{
		"name":     "Alice",
		"email":    "a@x.com",
		"password": "hunter2",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/auth/register", payload)
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, c2 := env.doJSONRequest(http.MethodPost, "/auth/register", payload)
	requireHTTPError(t, env.Auth.Register(c2), http.StatusBadRequest)

	var count int64
	require.NoError(t, env.DB.Model(&models.User{}).Where("email = ?", "a@x.com").Count(&count).Error)
	require.EqualValues(t, 1, count)

	var logs []models.AuditLog
	require.NoError(t, env.DB.Where("action = ?", "REGISTER_FAILED").Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Nil(t, logs[0].UserID)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("sales_rep")

	rec, c := env.doJSONRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    user.Email,
		"password": "password",
	})
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	sub, err := env.Tokens.Verify(body["access_token"].(string))
	require.NoError(t, err)
	require.Equal(t, user.ID, sub)

	var logs []models.AuditLog
	require.NoError(t, env.DB.Where("action = ?", "LOGIN").Find(&logs).Error)
	require.Len(t, logs, 1)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("sales_rep")

	_, c := env.doJSONRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    user.Email,
		"password": "not-the-password",
	})
	requireHTTPError(t, env.Auth.Login(c), http.StatusUnauthorized)

	var logs []models.AuditLog
	require.NoError(t, env.DB.Where("action = ?", "LOGIN_FAILED").Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, user.ID, *logs[0].UserID)
	require.Contains(t, logs[0].Details, "Invalid password")
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "whatever",
	})
	requireHTTPError(t, env.Auth.Login(c), http.StatusUnauthorized)

	var logs []models.AuditLog
	require.NoError(t, env.DB.Where("action = ?", "LOGIN_FAILED").Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Nil(t, logs[0].UserID)
	require.Contains(t, logs[0].Details, "User not found")
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("manager")

	rec, c := env.authedRequest(http.MethodGet, "/auth/me", nil, user)
	require.NoError(t, env.Auth.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, user.ID, body["id"])
	require.Equal(t, user.Email, body["email"])
	require.Equal(t, "manager", body["role"])
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("sales_rep")

	rec, c := env.authedRequest(http.MethodPost, "/auth/refresh", nil, user)
	require.NoError(t, env.Auth.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	sub, err := env.Tokens.Verify(body["access_token"].(string))
	require.NoError(t, err)
	require.Equal(t, user.ID, sub)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("sales_rep")

	_, cWrong := env.authedRequest(http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": "not-the-password",
		"new_password":     "newpassword",
	}, user)
	requireHTTPError(t, env.Auth.ChangePassword(cWrong), http.StatusBadRequest)

	rec, c := env.authedRequest(http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": "password",
		"new_password":     "newpassword",
	}, user)
	require.NoError(t, env.Auth.ChangePassword(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	require.NoError(t, env.DB.Where("id = ?", user.ID).First(&updated).Error)
	require.False(t, hash.CheckPassword("password", updated.PasswordHash, updated.PasswordSalt))
	require.True(t, hash.CheckPassword("newpassword", updated.PasswordHash, updated.PasswordSalt))
}

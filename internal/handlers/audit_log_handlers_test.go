package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mbelyakov/sales_crm/internal/models"
)

func (env *testEnv) seedAuditLog(userID, action, logType, resourceID string) {
	var uid *string
	if userID != "" {
		uid = &userID
	}
	row := models.AuditLog{
		UserID:     uid,
		Action:     action,
		Type:       logType,
		ResourceID: resourceID,
		Timestamp:  time.Now().UTC(),
	}
	require.NoError(env.T, env.DB.Create(&row).Error)
}

func TestAuditLogListForbiddenForRep(t *testing.T) {
	env := newTestEnv(t)
	rep := env.createUser("sales_rep")

	_, c := env.authedRequest(http.MethodGet, "/audit-logs", nil, rep)
	requireHTTPError(t, env.AuditLogs.List(c), http.StatusForbidden)
}

func TestAuditLogList(t *testing.T) {
	env := newTestEnv(t)
	manager := env.createUser("manager")

	env.seedAuditLog(manager.ID, "LOGIN", "auth", manager.ID)
	env.seedAuditLog(manager.ID, "CREATE", "customer", "c1")

	rec, c := env.authedRequest(http.MethodGet, "/audit-logs?action=LOGIN", nil, manager)
	require.NoError(t, env.AuditLogs.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	logs := body["audit_logs"].([]interface{})
	require.Len(t, logs, 1)
	require.Equal(t, "LOGIN", logs[0].(map[string]interface{})["action"])

	// viewing the logs left a trail of its own
	var viewed []models.AuditLog
	require.NoError(t, env.DB.Where("action = ?", "VIEW_AUDIT_LOGS").Find(&viewed).Error)
	require.Len(t, viewed, 1)
}

func TestUserAuditLogsSelfScope(t *testing.T) {
	env := newTestEnv(t)
	rep := env.createUser("sales_rep")
	other := env.createUser("sales_rep")

	env.seedAuditLog(rep.ID, "LOGIN", "auth", rep.ID)

	// a rep may read their own trail
	rec, c := env.authedRequest(http.MethodGet, "/audit-logs/user/"+rep.ID, nil, rep)
	c.SetParamNames("id")
	c.SetParamValues(rep.ID)
	require.NoError(t, env.AuditLogs.UserLogs(c))

	body := decodeBody(t, rec)
	require.EqualValues(t, 1, body["count"])

	// but not anyone else's
	_, c2 := env.authedRequest(http.MethodGet, "/audit-logs/user/"+other.ID, nil, rep)
	c2.SetParamNames("id")
	c2.SetParamValues(other.ID)
	requireHTTPError(t, env.AuditLogs.UserLogs(c2), http.StatusForbidden)
}

func TestUserAuditLogsManagerScope(t *testing.T) {
	env := newTestEnv(t)
	manager := env.createUser("manager")
	rep := env.createUser("sales_rep")

	env.seedAuditLog(rep.ID, "LOGIN", "auth", rep.ID)

	rec, c := env.authedRequest(http.MethodGet, "/audit-logs/user/"+rep.ID, nil, manager)
	c.SetParamNames("id")
	c.SetParamValues(rep.ID)
	require.NoError(t, env.AuditLogs.UserLogs(c))

	body := decodeBody(t, rec)
	require.EqualValues(t, 1, body["count"])
}

func TestResourceAuditLogs(t *testing.T) {
	env := newTestEnv(t)
	manager := env.createUser("manager")
	rep := env.createUser("sales_rep")

	env.seedAuditLog(manager.ID, "UPDATE", "customer", "c1")
	env.seedAuditLog(manager.ID, "DELETE", "customer", "c2")

	_, cRep := env.authedRequest(http.MethodGet, "/audit-logs/resource/customer/c1", nil, rep)
	cRep.SetParamNames("type", "id")
	cRep.SetParamValues("customer", "c1")
	requireHTTPError(t, env.AuditLogs.ResourceLogs(cRep), http.StatusForbidden)

	rec, c := env.authedRequest(http.MethodGet, "/audit-logs/resource/customer/c1", nil, manager)
	c.SetParamNames("type", "id")
	c.SetParamValues("customer", "c1")
	require.NoError(t, env.AuditLogs.ResourceLogs(c))

	body := decodeBody(t, rec)
	require.EqualValues(t, 1, body["count"])
	require.Equal(t, "c1", body["resource_id"])
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/audit"
	"github.com/mbelyakov/sales_crm/internal/hash"
	authmw "github.com/mbelyakov/sales_crm/internal/middleware/auth"
	"github.com/mbelyakov/sales_crm/internal/models"
	"github.com/mbelyakov/sales_crm/internal/token"
)

type testEnv struct {
	T         *testing.T
	E         *echo.Echo
	DB        *gorm.DB
	Tokens    *token.Service
	Auth      *AuthHandler
	Customers *CustomerHandler
	Deals     *DealHandler
	Notes     *NoteHandler
	Users     *UserHandler
	Analytics *AnalyticsHandler
	AuditLogs *AuditLogHandler
	Transfer  *TransferHandler
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Customer{}, &models.Deal{}, &models.Note{}, &models.AuditLog{},
	))

	tokens := &token.Service{Secret: []byte("test_secret")}
	recorder := &audit.Recorder{DB: db}

	env := &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Tokens: tokens,
	}
	env.Auth = &AuthHandler{DB: db, Tokens: tokens, Audit: recorder}
	env.Customers = &CustomerHandler{DB: db, Audit: recorder}
	env.Deals = &DealHandler{DB: db}
	env.Notes = &NoteHandler{DB: db}
	env.Users = &UserHandler{DB: db}
	env.Analytics = &AnalyticsHandler{DB: db}
	env.AuditLogs = &AuditLogHandler{DB: db, Audit: recorder}
	env.Transfer = &TransferHandler{DB: db}

	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// authedRequest builds a context the way RequireUser would have left it.
func (env *testEnv) authedRequest(method, path string, body interface{}, user *models.User) (*httptest.ResponseRecorder, echo.Context) {
	rec, c := env.doJSONRequest(method, path, body)
	c.Set(authmw.ContextKey, user)
	return rec, c
}

func (env *testEnv) createUser(role string) *models.User {
	digest, salt, err := hash.HashPassword("password", "")
	require.NoError(env.T, err)

	user := models.User{
		Name:         "Test User",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: digest,
		PasswordSalt: salt,
		Role:         role,
	}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) createCustomer(name, assignedTo string) *models.Customer {
	customer := models.Customer{Name: name, AssignedTo: assignedTo}
	require.NoError(env.T, env.DB.Create(&customer).Error)
	return &customer
}

func (env *testEnv) createDeal(title string, amount float64, status, customerID, assignedTo string) *models.Deal {
	deal := models.Deal{
		Title:      title,
		Amount:     amount,
		Status:     status,
		Stage:      status,
		CustomerID: customerID,
		AssignedTo: assignedTo,
	}
	require.NoError(env.T, env.DB.Create(&deal).Error)
	return &deal
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

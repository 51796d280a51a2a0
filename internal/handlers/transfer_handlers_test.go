package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	authmw "github.com/mbelyakov/sales_crm/internal/middleware/auth"
	"github.com/mbelyakov/sales_crm/internal/models"
)

func (env *testEnv) uploadRequest(path, filename, content string, user *models.User) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(env.T, err)
	_, err = fw.Write([]byte(content))
	require.NoError(env.T, err)
	require.NoError(env.T, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	c.Set(authmw.ContextKey, user)
	return rec, c
}

func TestExportCustomersCSV(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")
	env.createCustomer("Acme", admin.ID)

	rec, c := env.authedRequest(http.MethodGet, "/export/customers?format=csv", nil, admin)
	require.NoError(t, env.Transfer.ExportCustomers(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	require.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "customers.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "id,name,email,phone,company,assigned_to", lines[0])
	require.Contains(t, lines[1], "Acme")
}

func TestExportCustomersJSON(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")
	env.createCustomer("Acme", admin.ID)

	rec, c := env.authedRequest(http.MethodGet, "/export/customers", nil, admin)
	require.NoError(t, env.Transfer.ExportCustomers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var customers []models.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &customers))
	require.Len(t, customers, 1)
	require.Equal(t, "Acme", customers[0].Name)
}

func TestExportCustomersEmpty(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")

	_, c := env.authedRequest(http.MethodGet, "/export/customers", nil, admin)
	requireHTTPError(t, env.Transfer.ExportCustomers(c), http.StatusNotFound)
}

func TestExportAll(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")
	customer := env.createCustomer("Acme", admin.ID)
	env.createDeal("Big", 100, "open", customer.ID, admin.ID)

	rec, c := env.authedRequest(http.MethodGet, "/export/all", nil, admin)
	require.NoError(t, env.Transfer.ExportAll(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Customers []models.Customer `json:"customers"`
		Deals     []models.Deal     `json:"deals"`
		Notes     []models.Note     `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Customers, 1)
	require.Len(t, payload.Deals, 1)
	require.Empty(t, payload.Notes)
}

func TestImportCustomersCSV(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")

	csvBody := "name,email,company,phone\n" +
		"Acme,contact@acme.com,Acme Inc,123\n" +
		",skipped@row.com,Skipped,456\n" +
		"Globex,info@globex.com,Globex Corp,789\n"

	rec, c := env.uploadRequest("/import/customers", "customers.csv", csvBody, admin)
	require.NoError(t, env.Transfer.ImportCustomers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Customers imported successfully", body["message"])

	// the nameless row was skipped
	var customers []models.Customer
	require.NoError(t, env.DB.Order("name").Find(&customers).Error)
	require.Len(t, customers, 2)
	require.Equal(t, "Acme", customers[0].Name)
	require.Equal(t, "Globex", customers[1].Name)
}

func TestImportCustomersJSON(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")

	jsonBody := `[{"name": "Acme", "email": "contact@acme.com"}]`

	rec, c := env.uploadRequest("/import/customers", "customers.json", jsonBody, admin)
	require.NoError(t, env.Transfer.ImportCustomers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Customer{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestImportCustomersAllInvalid(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")

	csvBody := "name,email\n,only@nameless.com\n"

	_, c := env.uploadRequest("/import/customers", "customers.csv", csvBody, admin)
	requireHTTPError(t, env.Transfer.ImportCustomers(c), http.StatusBadRequest)
}

func TestImportCustomersUnsupportedType(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")

	_, c := env.uploadRequest("/import/customers", "customers.xlsx", "binary", admin)
	requireHTTPError(t, env.Transfer.ImportCustomers(c), http.StatusBadRequest)
}

func TestImportDealsCSV(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")

	csvBody := "title,amt,status,stage\n" +
		"Big deal,1500.50,open,open\n" +
		",10,open,open\n"

	rec, c := env.uploadRequest("/import/deals", "deals.csv", csvBody, admin)
	require.NoError(t, env.Transfer.ImportDeals(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Deals imported successfully", body["message"])

	var deals []models.Deal
	require.NoError(t, env.DB.Find(&deals).Error)
	require.Len(t, deals, 1)
	require.Equal(t, "Big deal", deals[0].Title)
	require.Equal(t, 1500.50, deals[0].Amount)
}

func TestImportMissingFile(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin")

	_, c := env.authedRequest(http.MethodPost, "/import/customers", nil, admin)
	requireHTTPError(t, env.Transfer.ImportCustomers(c), http.StatusBadRequest)
}

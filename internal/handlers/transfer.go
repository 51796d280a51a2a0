package handlers

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/models"
)

// TransferHandler serves CSV/JSON exports and file imports.
type TransferHandler struct {
	DB *gorm.DB
}

func attachmentHeaders(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
}

func writeCSV(c echo.Context, filename string, header []string, rows [][]string) error {
	attachmentHeaders(c, filename)
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeJSON(c echo.Context, filename string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to encode export")
	}
	attachmentHeaders(c, filename)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

var customerCSVHeader = []string{"id", "name", "email", "phone", "company", "assigned_to"}

func customerCSVRows(customers []models.Customer) [][]string {
	rows := make([][]string, len(customers))
	for i, cu := range customers {
		rows[i] = []string{cu.ID, cu.Name, cu.Email, cu.Phone, cu.Company, cu.AssignedTo}
	}
	return rows
}

var dealCSVHeader = []string{"id", "title", "amt", "status", "stage", "customer_id", "assigned_to"}

func dealCSVRows(deals []models.Deal) [][]string {
	rows := make([][]string, len(deals))
	for i, d := range deals {
		rows[i] = []string{
			d.ID, d.Title, strconv.FormatFloat(d.Amount, 'f', -1, 64),
			d.Status, d.Stage, d.CustomerID, d.AssignedTo,
		}
	}
	return rows
}

var noteCSVHeader = []string{"id", "customer_id", "content", "type", "created_at"}

func noteCSVRows(notes []models.Note) [][]string {
	rows := make([][]string, len(notes))
	for i, n := range notes {
		rows[i] = []string{n.ID, n.CustomerID, n.Content, n.Type, n.CreatedAt.Format(time.RFC3339)}
	}
	return rows
}

func (h *TransferHandler) ExportCustomers(c echo.Context) error {
	var customers []models.Customer
	if err := h.DB.Find(&customers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export customers")
	}
	if len(customers) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No customers found")
	}

	if c.QueryParam("format") == "csv" {
		return writeCSV(c, "customers.csv", customerCSVHeader, customerCSVRows(customers))
	}
	return writeJSON(c, "customers.json", customers)
}

func (h *TransferHandler) ExportDeals(c echo.Context) error {
	var deals []models.Deal
	if err := h.DB.Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export deals")
	}
	if len(deals) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No deals found")
	}

	if c.QueryParam("format") == "csv" {
		return writeCSV(c, "deals.csv", dealCSVHeader, dealCSVRows(deals))
	}
	return writeJSON(c, "deals.json", deals)
}

func (h *TransferHandler) ExportNotes(c echo.Context) error {
	var notes []models.Note
	if err := h.DB.Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export notes")
	}
	if len(notes) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No notes found")
	}

	if c.QueryParam("format") == "csv" {
		return writeCSV(c, "notes.csv", noteCSVHeader, noteCSVRows(notes))
	}
	return writeJSON(c, "notes.json", notes)
}

func (h *TransferHandler) ExportAll(c echo.Context) error {
	var customers []models.Customer
	var deals []models.Deal
	var notes []models.Note
	if err := h.DB.Find(&customers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export data")
	}
	if err := h.DB.Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export data")
	}
	if err := h.DB.Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export data")
	}
	if len(customers) == 0 && len(deals) == 0 && len(notes) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No data found")
	}

	if c.QueryParam("format") == "csv" {
		attachmentHeaders(c, "all.csv")
		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().WriteHeader(http.StatusOK)

		w := csv.NewWriter(c.Response())
		sections := []struct {
			header []string
			rows   [][]string
		}{
			{customerCSVHeader, customerCSVRows(customers)},
			{dealCSVHeader, dealCSVRows(deals)},
			{noteCSVHeader, noteCSVRows(notes)},
		}
		for _, s := range sections {
			if err := w.Write(s.header); err != nil {
				return err
			}
			if err := w.WriteAll(s.rows); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}

	return writeJSON(c, "all.json", echo.Map{
		"customers": customers,
		"deals":     deals,
		"notes":     notes,
	})
}

func uploadedFile(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	src, err := fh.Open()
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "Error processing file")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "Error processing file")
	}

	parts := strings.Split(fh.Filename, ".")
	ext := strings.ToLower(parts[len(parts)-1])
	return content, ext, nil
}

// csvRecords parses a CSV with a header row into column-keyed maps.
func csvRecords(content []byte) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}

	var records []map[string]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		record := map[string]string{}
		for i, field := range row {
			if i < len(header) {
				record[strings.TrimSpace(header[i])] = field
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// ImportCustomers accepts a CSV or JSON upload; rows without a name are
// skipped.
func (h *TransferHandler) ImportCustomers(c echo.Context) error {
	content, ext, err := uploadedFile(c)
	if err != nil {
		return err
	}

	var customers []models.Customer
	switch ext {
	case "csv":
		records, err := csvRecords(content)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Error processing file")
		}
		for _, r := range records {
			customers = append(customers, models.Customer{
				Name:    r["name"],
				Email:   r["email"],
				Company: r["company"],
				Phone:   r["phone"],
			})
		}
	case "json":
		if err := json.Unmarshal(content, &customers); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Error processing file")
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unsupported file type")
	}

	kept := customers[:0]
	for _, cu := range customers {
		if cu.Name != "" {
			cu.ID = ""
			kept = append(kept, cu)
		}
	}
	if len(kept) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Error processing file")
	}

	if err := h.DB.Create(&kept).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to import customers")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Customers imported successfully"})
}

func (h *TransferHandler) ImportDeals(c echo.Context) error {
	content, ext, err := uploadedFile(c)
	if err != nil {
		return err
	}

	var deals []models.Deal
	switch ext {
	case "csv":
		records, err := csvRecords(content)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Error processing file")
		}
		for _, r := range records {
			amt, _ := strconv.ParseFloat(r["amt"], 64)
			deals = append(deals, models.Deal{
				Title:      r["title"],
				Amount:     amt,
				Status:     r["status"],
				Stage:      r["stage"],
				CustomerID: r["customer_id"],
				AssignedTo: r["assigned_to"],
			})
		}
	case "json":
		if err := json.Unmarshal(content, &deals); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Error processing file")
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unsupported file type")
	}

	kept := deals[:0]
	for _, d := range deals {
		if d.Title != "" {
			d.ID = ""
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Error processing file")
	}

	if err := h.DB.Create(&kept).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to import deals")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Deals imported successfully"})
}

package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	alertapp "labajada-cloud/internal/alerting/application"
	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/observability/metrics"
)

const timeLayout = time.RFC3339

// BuildAlertLogXLSX renders the alert log as a spreadsheet.
func BuildAlertLogXLSX(entries []alerting.LogEntry) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "alerts"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Sent At", "Type", "Speed (kts)", "Gust (kts)", "Direction", "Cardinal", "Sent", "Skipped", "Expired"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, entry := range entries {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), entry.Timestamp.Format(timeLayout))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(entry.AlertType))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.WindSpeed)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), entry.WindGust)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), entry.WindDirection)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), entry.Cardinal)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), entry.Sent)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), entry.Skipped)
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), entry.Expired)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildAlertLogPDF renders a compact PDF report of the alert log.
func BuildAlertLogPDF(spotName string, entries []alerting.LogEntry) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Wind Alert Report: %s", spotName))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(timeLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Entries: %d", len(entries)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Sent At", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Speed", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Gust", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Cardinal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Sent", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, entry := range entries {
		pdf.CellFormat(45, 6, entry.Timestamp.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, string(entry.AlertType), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", entry.WindSpeed), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", entry.WindGust), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, entry.Cardinal, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, strconv.Itoa(entry.Sent), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportHandler serves the alert log as a downloadable file.
type ExportHandler struct {
	logs     alertapp.LogStore
	spotName string
}

// NewExportHandler constructs an export handler.
func NewExportHandler(logs alertapp.LogStore, spotName string) (*ExportHandler, error) {
	if logs == nil {
		return nil, errors.New("export handler: nil store")
	}
	return &ExportHandler{logs: logs, spotName: spotName}, nil
}

// ServeHTTP handles GET /api/v1/alerts/log/export?format=xlsx|pdf.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "pdf" {
		http.Error(w, "format must be xlsx or pdf", http.StatusBadRequest)
		return
	}
	limit := maxLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	started := time.Now()
	entries, err := h.logs.Recent(r.Context(), limit)
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	var (
		data     []byte
		mimeType string
		filename string
	)
	switch format {
	case "xlsx":
		data, err = BuildAlertLogXLSX(entries)
		mimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "alert-log.xlsx"
	case "pdf":
		data, err = BuildAlertLogPDF(h.spotName, entries)
		mimeType = "application/pdf"
		filename = "alert-log.pdf"
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(data)
}

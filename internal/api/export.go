package api

import (
	"fmt"
	"net/http"
	"time"

	"slotnik/internal/access"

	"github.com/xuri/excelize/v2"
)

// handleExport streams the active schedule as an xlsx workbook, one row
// per booking. Operator-only.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.gate.Allow(IdentityFrom(r.Context()), access.OpExport); err != nil {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	bookings, err := s.eng.ListActive(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error().Err(err).Msg("export: create sheet")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Date", "Time", "Name", "Email", "Phone", "Type", "Status", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "I1", headerStyle)

	for row, b := range bookings {
		values := []any{b.ID, b.Date, b.Time, b.Contact.Name, b.Contact.Email, b.Contact.Phone, b.MeetingType, b.Status, b.Notes}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "I", 18)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("export: write workbook")
	}
}

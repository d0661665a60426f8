package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"homeservices/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Bookings"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type column struct {
	header string
	width  float64
	value  func(b *models.Booking) interface{}
}

var bookingColumns = []column{
	{"Booking ID", 18, func(b *models.Booking) interface{} { return b.BookingCode }},
	{"Customer Name", 20, func(b *models.Booking) interface{} { return b.Name }},
	{"Email", 25, func(b *models.Booking) interface{} { return b.Email }},
	{"Phone", 15, func(b *models.Booking) interface{} { return b.Phone }},
	{"Service", 30, func(b *models.Booking) interface{} { return strings.Join(b.ServiceNames(), ", ") }},
	{"Address", 40, func(b *models.Booking) interface{} { return b.Address.String() }},
	{"Date", 12, func(b *models.Booking) interface{} { return b.Date.Format(models.DateLayout) }},
	{"Time", 10, func(b *models.Booking) interface{} { return b.Time }},
	{"Status", 12, func(b *models.Booking) interface{} { return string(b.Status) }},
	{"Technician", 20, func(b *models.Booking) interface{} {
		if b.Technician == nil || b.Technician.Name == "" {
			return "Not Assigned"
		}
		return b.Technician.Name
	}},
	{"Tech Phone", 15, func(b *models.Booking) interface{} {
		if b.Technician == nil {
			return ""
		}
		return b.Technician.Phone
	}},
	{"Location", 22, func(b *models.Booking) interface{} {
		if b.Location == nil || b.Location.Coordinates == nil {
			return "Not Available"
		}
		c := b.Location.Coordinates
		return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
	}},
	{"Estimated Cost", 14, func(b *models.Booking) interface{} { return costCell(b.EstimatedCost) }},
	{"Actual Cost", 14, func(b *models.Booking) interface{} { return costCell(b.ActualCost) }},
	{"Created Date", 15, func(b *models.Booking) interface{} { return b.CreatedAt.Format(models.DateLayout) }},
}

func costCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

// FileName is the download name for an export taken at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("bookings-%s.xlsx", now.Format(models.DateLayout))
}

// BookingsWorkbook lays out one header row and one row per booking, in the given order.
func BookingsWorkbook(bookings []*models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating header style: %w", err)
	}

	for i, col := range bookingColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, col.header)
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetName, name, name, col.width)
	}
	last, _ := excelize.CoordinatesToCellName(len(bookingColumns), 1)
	_ = f.SetCellStyle(SheetName, "A1", last, headerStyle)

	for r, b := range bookings {
		row := make([]interface{}, len(bookingColumns))
		for i, col := range bookingColumns {
			row[i] = col.value(b)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("error writing row %d: %w", r+2, err)
		}
	}
	return f, nil
}

// WriteBookings streams the workbook to w.
func WriteBookings(w io.Writer, bookings []*models.Booking) error {
	f, err := BookingsWorkbook(bookings)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

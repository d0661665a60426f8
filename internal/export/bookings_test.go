package export

import (
	"bytes"
	"testing"
	"time"

	"homeservices/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookings(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	cost := 1499.0
	bookings := []*models.Booking{
		{
			BookingCode: "AX-20250314-K7PQ",
			Name:        "Asha",
			Email:       "asha@example.com",
			Phone:       "+919800000001",
			Services:    []models.LineItem{{ServiceName: "AC Repair"}, {ServiceName: "Gas Refill"}},
			Address:     models.Address{Street: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001"},
			Date:        created.AddDate(0, 0, 1),
			Time:        "10:00",
			Status:      models.StatusCompleted,
			ActualCost:  &cost,
			Technician:  &models.Technician{Name: "Ravi", Phone: "+919800000002"},
			Location:    &models.Location{Coordinates: &models.Coordinates{Latitude: 18.5204, Longitude: 73.8567}},
			CreatedAt:   created,
		},
		{
			BookingCode: "AX-20250314-ZZ22",
			Name:        "Vik",
			Services:    []models.LineItem{{ServiceName: "Leak Fix"}},
			Date:        created,
			Time:        "Morning",
			Status:      models.StatusPending,
			CreatedAt:   created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Booking ID", rows[0][0])
	assert.Equal(t, "Created Date", rows[0][len(bookingColumns)-1])

	first := rows[1]
	assert.Equal(t, "AX-20250314-K7PQ", first[0])
	assert.Equal(t, "AC Repair, Gas Refill", first[4])
	assert.Equal(t, "12 MG Road, Pune, MH - 411001", first[5])
	assert.Equal(t, "2025-03-15", first[6])
	assert.Equal(t, "Completed", first[8])
	assert.Equal(t, "Ravi", first[9])
	assert.Equal(t, "18.520400, 73.856700", first[11])
	assert.Equal(t, "1499", first[13])

	second := rows[2]
	assert.Equal(t, "Not Assigned", second[9])
	assert.Equal(t, "Not Available", second[11])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "bookings-2025-03-14.xlsx", FileName(time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)))
}

package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"homeservices/internal/models"
)

const displayDate = "02 Jan 2006"

type templates struct {
	brand   string
	support string
}

func statusLine(b *models.Booking) string {
	switch b.Status {
	case models.StatusConfirmed:
		return fmt.Sprintf("Your booking %s has been confirmed. Our technician will arrive on %s at %s.",
			b.BookingCode, b.Date.Format(displayDate), b.Time)
	case models.StatusInProgress:
		return fmt.Sprintf("Work has started on booking %s. Our technician is now servicing your request.", b.BookingCode)
	case models.StatusCompleted:
		return fmt.Sprintf("Service completed for booking %s. Thank you for choosing us!", b.BookingCode)
	case models.StatusCancelled:
		return fmt.Sprintf("Booking %s has been cancelled. Contact us if you would like to rebook.", b.BookingCode)
	default:
		return fmt.Sprintf("Booking %s status updated to %s.", b.BookingCode, b.Status)
	}
}

func (t templates) details(b *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking ID: %s\n", b.BookingCode)
	fmt.Fprintf(&sb, "Services: %s\n", strings.Join(b.ServiceNames(), ", "))
	fmt.Fprintf(&sb, "Address: %s\n", b.Address.String())
	fmt.Fprintf(&sb, "Date: %s\n", b.Date.Format(displayDate))
	fmt.Fprintf(&sb, "Time: %s", b.Time)
	return sb.String()
}

func (t templates) customerCreatedText(b *models.Booking, to string) Message {
	text := fmt.Sprintf("%s - Booking Received\n\nHello %s,\nYour booking has been submitted successfully.\n\n%s\n\nSupport: %s",
		t.brand, b.Name, t.details(b), t.support)
	return Message{To: to, Text: text}
}

func (t templates) customerCreatedSMS(b *models.Booking) Message {
	text := fmt.Sprintf("%s: Booking %s received for %s at %s (%s). Address: %s. Queries: %s",
		t.brand, b.BookingCode, b.Date.Format(displayDate), b.Time,
		strings.Join(b.ServiceNames(), ", "), b.Address.String(), t.support)
	return Message{To: b.Phone, Text: text}
}

func (t templates) staffAlertText(b *models.Booking, to string) Message {
	work := b.WorkDescription
	if work == "" {
		work = "No specific description provided"
	}
	text := fmt.Sprintf("NEW BOOKING ALERT - %s\n\nCustomer: %s\nPhone: %s\nEmail: %s\nWork: %s\n\n%s\n\nPlease assign a technician. Support: %s",
		t.brand, b.Name, b.Phone, b.Email, work, t.details(b), t.support)
	return Message{To: to, Text: text}
}

func (t templates) staffAlertSMS(b *models.Booking, to string) Message {
	text := fmt.Sprintf("NEW BOOKING %s | %s | %s | %s %s | %s | %s | Support: %s",
		b.BookingCode, b.Name, b.Phone, b.Date.Format(displayDate), b.Time,
		strings.Join(b.ServiceNames(), ", "), b.Address.String(), t.support)
	return Message{To: to, Text: text}
}

func (t templates) statusText(b *models.Booking, to string) Message {
	text := fmt.Sprintf("%s - Booking Update\n\nHello %s,\n%s\n\n%s\n\nSupport: %s",
		t.brand, b.Name, statusLine(b), t.details(b), t.support)
	return Message{To: to, Text: text}
}

func (t templates) statusSMS(b *models.Booking) Message {
	text := fmt.Sprintf("%s: %s %s on %s at %s, %s. Queries: %s",
		t.brand, statusLine(b), strings.Join(b.ServiceNames(), ", "), b.Date.Format(displayDate), b.Time,
		b.Address.String(), t.support)
	return Message{To: b.Phone, Text: text}
}

var emailLayout = template.Must(template.New("email").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #2563eb;">{{.Brand}} - {{.Heading}}</h2>
<p>{{.Greeting}}</p>
<p>{{.Lead}}</p>
<div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px;">
<p><strong>Booking ID:</strong> {{.Booking.BookingCode}}</p>
{{- if .Customer}}
<p><strong>Customer:</strong> {{.Booking.Name}} ({{.Booking.Phone}}, {{.Booking.Email}})</p>
{{- end}}
{{- if .OldStatus}}
<p><strong>Previous Status:</strong> {{.OldStatus}}</p>
{{- end}}
<p><strong>Status:</strong> {{.Booking.Status}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Booking.Time}}</p>
<h4>Services</h4>
<ul>{{range .Booking.Services}}<li>{{.ServiceName}} ({{.Category}})</li>{{end}}</ul>
<h4>Service Address</h4>
<p>{{.Address}}</p>
{{- if .Booking.WorkDescription}}
<p><strong>Work Description:</strong> {{.Booking.WorkDescription}}</p>
{{- end}}
{{- if .Notes}}
<p><strong>Notes:</strong> {{.Notes}}</p>
{{- end}}
</div>
<p>For any queries contact us: {{.Support}}</p>
<hr><p style="font-size: 12px; color: #666;">This is an automated email. Please do not reply.</p>
</div>`))

type emailData struct {
	Brand     string
	Heading   string
	Greeting  string
	Lead      string
	Booking   *models.Booking
	Customer  bool
	OldStatus models.BookingStatus
	Date      string
	Address   string
	Notes     string
	Support   string
}

func (t templates) renderEmail(to, subject string, data emailData) Message {
	data.Brand = t.brand
	data.Support = t.support
	data.Date = data.Booking.Date.Format(displayDate)
	data.Address = data.Booking.Address.String()

	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, data); err != nil {
		// The plain text body still reaches the recipient.
		buf.Reset()
	}
	text := fmt.Sprintf("%s\n\n%s\n\n%s\n\nSupport: %s", data.Greeting, data.Lead, t.details(data.Booking), t.support)
	return Message{To: to, Subject: subject, HTML: buf.String(), Text: text}
}

func (t templates) customerCreatedEmail(b *models.Booking) Message {
	return t.renderEmail(b.Email, "Booking Confirmation - "+b.BookingCode, emailData{
		Heading:  "Booking Received",
		Greeting: "Dear " + b.Name + ",",
		Lead:     "Thank you for choosing us! Our team will contact you shortly to confirm the appointment.",
		Booking:  b,
	})
}

func (t templates) staffAlertEmail(b *models.Booking, to string) Message {
	return t.renderEmail(to, "New Booking Alert - "+b.BookingCode, emailData{
		Heading:  "New Booking Alert",
		Greeting: "A new booking has been received.",
		Lead:     "Please assign a technician.",
		Booking:  b,
		Customer: true,
	})
}

func (t templates) statusEmail(b *models.Booking, old models.BookingStatus) Message {
	notes := b.TechnicianNotes
	if b.AdminNotes != "" {
		if notes != "" {
			notes += " / "
		}
		notes += b.AdminNotes
	}
	return t.renderEmail(b.Email, "Booking Update - "+b.BookingCode, emailData{
		Heading:   "Booking Update",
		Greeting:  "Dear " + b.Name + ",",
		Lead:      statusLine(b),
		Booking:   b,
		OldStatus: old,
		Notes:     notes,
	})
}

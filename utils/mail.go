package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"

	"github.com/Kariqs/megano-api/models"
)

type EmailData struct {
	Name      string
	Message   string
	OrderID   uint
	TotalCost string
	Lines     []ReceiptLine
}

type ReceiptLine struct {
	ProductID uint
	Count     int
	Price     string
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<html><body>
<p>Hello {{.Name}},</p>
<p>{{.Message}}</p>
<table>
{{range .Lines}}<tr><td>Product #{{.ProductID}}</td><td>{{.Count}}</td><td>{{.Price}}</td></tr>
{{end}}</table>
<p>Total: {{.TotalCost}}</p>
</body></html>`))

func SendEmail(emailTo string, emailSubject string, data EmailData, tmpl *template.Template) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		os.Getenv("FROM_EMAIL"),
		emailTo,
		emailSubject,
		body.String(),
	)

	auth := smtp.PlainAuth(
		"",
		os.Getenv("FROM_EMAIL"),
		os.Getenv("FROM_EMAIL_PASSWORD"),
		os.Getenv("FROM_EMAIL_SMTP"),
	)

	err := smtp.SendMail(os.Getenv("SMTP_ADDRESS"), auth, os.Getenv("FROM_EMAIL"), []string{emailTo}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// ReceiptMailer emails the customer once an order is paid.
type ReceiptMailer struct{}

func MailConfigured() bool {
	return os.Getenv("SMTP_ADDRESS") != "" && os.Getenv("FROM_EMAIL") != ""
}

func ReceiptData(order models.Order) EmailData {
	lines := make([]ReceiptLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, ReceiptLine{ProductID: line.ProductID, Count: line.Quantity, Price: line.Price.StringFixed(2)})
	}
	name := order.FullName
	if name == "" {
		name = "customer"
	}
	return EmailData{
		Name:      name,
		Message:   fmt.Sprintf("Your payment for order #%d was successful.", order.ID),
		OrderID:   order.ID,
		TotalCost: order.TotalCost.StringFixed(2),
		Lines:     lines,
	}
}

func (ReceiptMailer) SendReceipt(order models.Order) error {
	return SendEmail(order.Email, fmt.Sprintf("Megano order #%d receipt", order.ID), ReceiptData(order), receiptTemplate)
}

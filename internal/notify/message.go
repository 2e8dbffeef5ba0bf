package notify

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/service"
)

const qrContentID = "qr-code"

// Inline вложение, на которое ссылается HTML через cid:
type Inline struct {
	ContentID   string
	Filename    string
	ContentType string
	Data        []byte
}

// Message готовое к отправке письмо
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
	Inline  []Inline
}

type messageData struct {
	Name       string
	Subject    string
	Classroom  string
	Day        string
	StartTime  string
	EndTime    string
	Validity   string
	ImageSrc   htmltmpl.URL
	Payload    string
	ExpiresAt  string
	ScheduleID string
}

var htmlTemplate = htmltmpl.Must(htmltmpl.New("qr.gohtml").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #0ea5e9;">Your Class Access QR Code</h1>
  <p>Hello {{.Name}},</p>
  <p>Your class is starting soon! Here are the details:</p>
  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <p><strong>Classroom:</strong> {{.Classroom}}</p>
    <p><strong>Day:</strong> {{.Day}}</p>
    <p><strong>Time:</strong> {{.StartTime}} - {{.EndTime}}</p>
  </div>
  <p>Use this QR code to access the classroom:</p>
  <div style="text-align: center; margin: 30px 0;">
    <img src="{{.ImageSrc}}" alt="Class Access QR Code" style="max-width: 300px; border: 2px solid #0ea5e9; border-radius: 8px;"/>
  </div>
  <p style="color: #6b7280; font-size: 14px;">
    <strong>Note:</strong> This QR code is valid for {{.Validity}} and is for single use only.
  </p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 30px 0;"/>
  <p style="color: #9ca3af; font-size: 12px;">This is an automated message from Smart Class Management System.</p>
</div>
`))

var textTemplate = texttmpl.Must(texttmpl.New("qr.txt").Option("missingkey=error").Parse(`Hello {{.Name}},

Your class is starting soon! Here are the details:

Subject:   {{.Subject}}
Classroom: {{.Classroom}}
Day:       {{.Day}}
Time:      {{.StartTime}} - {{.EndTime}}

Your access code: {{.Payload}}
The QR image is attached to this message.

Note: This QR code is valid for {{.Validity}} (until {{.ExpiresAt}}) and is for single use only.

This is an automated message from Smart Class Management System.
`))

// BuildMessage собирает письмо с QR-кодом; qrPNG прикладывается inline
func BuildMessage(code *model.ClassQRCode, to service.Recipient, class service.ScheduleContext, qrPNG []byte) (*Message, error) {
	data := messageData{
		Name:       to.Name,
		Subject:    class.Subject,
		Classroom:  class.Classroom,
		Day:        class.Day,
		StartTime:  class.StartTime,
		EndTime:    class.EndTime,
		Validity:   humanizeValidity(code.ExpiresAt.Sub(code.CreatedAt)),
		ImageSrc:   htmltmpl.URL("cid:" + qrContentID),
		Payload:    code.Payload,
		ExpiresAt:  code.ExpiresAt.Format("15:04"),
		ScheduleID: class.ScheduleID,
	}

	var html, text bytes.Buffer
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	if err := textTemplate.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}

	return &Message{
		To:      mail.Address{Name: to.Name, Address: to.Email},
		Subject: "Class Access QR Code - " + class.Subject,
		Text:    text.String(),
		HTML:    html.String(),
		Inline: []Inline{{
			ContentID:   qrContentID,
			Filename:    "class-qr.png",
			ContentType: "image/png",
			Data:        qrPNG,
		}},
	}, nil
}

// humanizeValidity "1 hour", "90 minutes", "2 hours"
func humanizeValidity(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d == time.Minute:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
}

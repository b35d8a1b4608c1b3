package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/imunetrack/imunetrack-api/internal/events"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	confirmationHTML = htmltemplate.Must(
		htmltemplate.ParseFS(templateFS, "templates/dose_confirmation.html.tmpl"))
	confirmationText = texttemplate.Must(
		texttemplate.ParseFS(templateFS, "templates/dose_confirmation.txt.tmpl"))
)

// appliedOnLayout is the day/month/year layout used in message bodies.
const appliedOnLayout = "02/01/2006"

type confirmationData struct {
	UserName     string
	VaccineName  string
	DoseNumber   int
	DoseCount    int
	AppliedOn    string
	Lot          string
	Site         string
	Professional string
}

// RenderDoseConfirmation builds the confirmation email for an applied dose.
// User-supplied fields are HTML-escaped in the HTML body.
func RenderDoseConfirmation(p events.DoseAppliedPayload) (Message, error) {
	data := confirmationData{
		UserName:     p.UserName,
		VaccineName:  p.VaccineName,
		DoseNumber:   p.DoseNumber,
		DoseCount:    p.DoseCount,
		AppliedOn:    p.AppliedOn.Format(appliedOnLayout),
		Lot:          p.Lot,
		Site:         p.Site,
		Professional: p.Professional,
	}

	var html, text bytes.Buffer
	if err := confirmationHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	if err := confirmationText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}

	return Message{
		To:       p.UserEmail,
		Subject:  "Confirmação de Registro - " + p.VaccineName,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

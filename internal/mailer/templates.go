package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"agency-portal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type answerRow struct {
	Key   string
	Value string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ответы мастера в стабильном порядке
func answerRows(answers map[string]any) []answerRow {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]answerRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, answerRow{Key: k, Value: formatAnswer(answers[k])})
	}
	return rows
}

func formatAnswer(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	case float64:
		return fmt.Sprintf("%g", t)
	}
	return fmt.Sprint(v)
}

func renderLeadNotification(lead *models.ContactSubmission) (string, error) {
	return render("lead_notification.html", map[string]any{
		"Lead":    lead,
		"Answers": answerRows(lead.Answers),
	})
}

func renderLeadConfirmation(lead *models.ContactSubmission) (string, error) {
	return render("lead_confirmation.html", map[string]any{"Lead": lead})
}

func renderInvitation(name, link string, expires time.Time) (string, error) {
	return render("invitation.html", map[string]any{
		"Name":    name,
		"Link":    link,
		"Expires": expires,
	})
}

func renderDigest(leads []models.ContactSubmission) (string, error) {
	return render("digest.html", map[string]any{"Leads": leads})
}

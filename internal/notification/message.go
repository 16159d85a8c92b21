package notification

import (
	"fmt"
	"time"

	"statusping/internal/checker"
)

// buildMessage renders the subject plus plain-text and HTML bodies for an
// alert.
func buildMessage(alert Alert) (subject, textBody, htmlBody string) {
	m := alert.Monitor
	now := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")

	if alert.Kind == KindDown {
		errText := alert.ErrorMessage
		if errText == "" {
			errText = "Unknown"
		}

		subject = fmt.Sprintf("[StatusPing] %s is DOWN", m.Name)
		textBody = fmt.Sprintf(
			"Your monitor '%s' is currently down.\n\n"+
				"URL: %s\n"+
				"Error: %s\n"+
				"Time: %s\n\n"+
				"We'll notify you when it recovers.\n\n"+
				"StatusPing",
			m.Name, m.URL, errText, now)
		htmlBody = fmt.Sprintf(
			`<div style="font-family: sans-serif; max-width: 600px;">`+
				`<h2 style="color: #ef4444;">Monitor Down</h2>`+
				`<p>Your monitor <strong>%s</strong> is currently down.</p>`+
				`<table><tr><td>URL</td><td>%s</td></tr>`+
				`<tr><td>Error</td><td>%s</td></tr>`+
				`<tr><td>Time</td><td>%s</td></tr></table>`+
				`<p>We'll notify you when it recovers.</p></div>`,
			m.Name, m.URL, errText, now)
		return subject, textBody, htmlBody
	}

	downtime := checker.FormatDuration(alert.Downtime)
	subject = fmt.Sprintf("[StatusPing] %s is back UP", m.Name)
	textBody = fmt.Sprintf(
		"Your monitor '%s' has recovered.\n\n"+
			"URL: %s\n"+
			"Downtime: %s\n"+
			"Recovered at: %s\n\n"+
			"StatusPing",
		m.Name, m.URL, downtime, now)
	htmlBody = fmt.Sprintf(
		`<div style="font-family: sans-serif; max-width: 600px;">`+
			`<h2 style="color: #10b981;">Monitor Recovered</h2>`+
			`<p>Your monitor <strong>%s</strong> is back online.</p>`+
			`<table><tr><td>URL</td><td>%s</td></tr>`+
			`<tr><td>Downtime</td><td>%s</td></tr>`+
			`<tr><td>Recovered</td><td>%s</td></tr></table></div>`,
		m.Name, m.URL, downtime, now)
	return subject, textBody, htmlBody
}

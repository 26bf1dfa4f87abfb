package notifier

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"webnotifier/internal/config"
	"webnotifier/internal/differ"
	"webnotifier/internal/models"
	"webnotifier/internal/urlhandler"
)

const maxDiffBodyChars = 64 * 1024

// FormatChangeNotification renders a detected-change event into an email
// with a plain text diff and an optional inline HTML diff.
func FormatChangeNotification(event models.PageChangeEvent, cfg config.NotificationConfig, contextLines int) EmailMessage {
	host := urlhandler.HostnameOf(event.URL)
	label := event.Title
	if label == "" {
		label = event.URL
	}

	subject := fmt.Sprintf("%s Page changed: %s", cfg.SubjectPrefix, host)
	if event.IsNew {
		subject = fmt.Sprintf("%s Now watching: %s", cfg.SubjectPrefix, host)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s\n%s\n\n", label, event.URL)
	fmt.Fprintf(&text, "Detected at: %s\n", event.DetectedAt.Format(time.RFC1123))

	if event.IsNew {
		fmt.Fprintf(&text, "\nThis page is now being watched. Future changes will be reported.\n")
		return EmailMessage{Subject: subject, TextBody: text.String()}
	}

	fmt.Fprintf(&text, "Previous version: %s\n", truncateHash(event.OldHash))
	fmt.Fprintf(&text, "Current version:  %s\n\n", truncateHash(event.NewHash))
	fmt.Fprintf(&text, "%s\n", differ.Summary(event.DiffResult))

	var htmlBody string
	if event.DiffResult != nil && event.DiffResult.ErrorMessage == "" {
		diffText := differ.RenderText(event.DiffResult.Diffs, contextLines)
		fmt.Fprintf(&text, "\n%s\n", truncateBody(diffText))

		if cfg.SendHTML {
			htmlBody = renderHTMLBody(label, event, differ.RenderHTML(event.DiffResult.Diffs))
		}
	}

	return EmailMessage{
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: htmlBody,
	}
}

// FormatFetchFailureNotification renders a failed check into an email.
func FormatFetchFailureNotification(event models.FetchFailureEvent, cfg config.NotificationConfig) EmailMessage {
	host := urlhandler.HostnameOf(event.URL)
	subject := fmt.Sprintf("%s Check failed: %s", cfg.SubjectPrefix, host)

	var text strings.Builder
	fmt.Fprintf(&text, "Checking %s failed at %s.\n\n", event.URL, event.OccurredAt.Format(time.RFC1123))
	if event.StatusCode > 0 {
		fmt.Fprintf(&text, "HTTP status: %d\n", event.StatusCode)
	}
	fmt.Fprintf(&text, "Error: %s\n", event.Error)

	return EmailMessage{Subject: subject, TextBody: text.String()}
}

// FormatDaemonStatusNotification renders a start/stop notice.
func FormatDaemonStatusNotification(status string, watchedURLs []string, cfg config.NotificationConfig) EmailMessage {
	subject := fmt.Sprintf("%s Watcher %s", cfg.SubjectPrefix, status)

	var text strings.Builder
	fmt.Fprintf(&text, "The page watcher is %s (%s).\n", status, time.Now().Format(time.RFC1123))
	if len(watchedURLs) > 0 {
		fmt.Fprintf(&text, "\nWatched pages (%d):\n", len(watchedURLs))
		for _, u := range watchedURLs {
			fmt.Fprintf(&text, "  - %s\n", u)
		}
	}

	return EmailMessage{Subject: subject, TextBody: text.String()}
}

func renderHTMLBody(label string, event models.PageChangeEvent, diffHTML template.HTML) string {
	var html strings.Builder
	html.WriteString("<html><body>")
	fmt.Fprintf(&html, `<h2>%s</h2>`, template.HTMLEscapeString(label))
	fmt.Fprintf(&html, `<p><a href="%s">%s</a></p>`, template.HTMLEscapeString(event.URL), template.HTMLEscapeString(event.URL))
	fmt.Fprintf(&html, `<p>Detected at %s. %s</p>`,
		template.HTMLEscapeString(event.DetectedAt.Format(time.RFC1123)),
		template.HTMLEscapeString(differ.Summary(event.DiffResult)))
	html.WriteString(`<pre style="white-space: pre-wrap; font-family: monospace;">`)
	html.WriteString(string(diffHTML))
	html.WriteString("</pre></body></html>")
	return html.String()
}

func truncateHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}

func truncateBody(body string) string {
	if len(body) <= maxDiffBodyChars {
		return body
	}
	// Back off to a rune boundary so the cut never leaves a partial
	// UTF-8 sequence in the mail body.
	cut := maxDiffBodyChars
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "\n... (diff truncated)"
}

// Package notify formats fuel state changes and delivers them to a
// Slack incoming webhook.
package notify

import (
	"fmt"
	"strings"
	"time"

	"starbase-monitor/internal/domain"
)

// Attachment is one display-ready record for the messaging sink.
// Severity carries the raw state string; mapping it to a colour is the
// sink's job.
type Attachment struct {
	Title    string
	Severity string
	Body     string
	Fallback string
}

// Message is a fully formatted notification.
type Message struct {
	Lead        string
	Attachments []Attachment
}

const (
	urgentPrefix = "<!channel> "
	leadText     = "Starbase fuel state changes:"
)

// offlineFormat is the calendar layout for the projected offline time.
const offlineFormat = "Mon, 02 Jan 2006 15:04"

// BuildMessage turns the reported changes into a message. Urgent runs
// get a channel-broadcast prefix on the lead line.
func BuildMessage(changes []domain.StateChange, urgent bool, now time.Time) Message {
	lead := leadText
	if urgent {
		lead = urgentPrefix + leadText
	}

	attachments := make([]Attachment, len(changes))
	for i, ch := range changes {
		attachments[i] = formatChange(ch, now)
	}
	return Message{Lead: lead, Attachments: attachments}
}

func formatChange(ch domain.StateChange, now time.Time) Attachment {
	s := ch.Structure
	offline := now.Add(time.Duration(s.HoursRemaining()) * time.Hour)

	return Attachment{
		Title: fmt.Sprintf("%s is %s (%.1f days)",
			s.DisplayName, strings.ToUpper(string(ch.Current)), s.DaysRemaining()),
		Severity: string(ch.Current),
		Body: fmt.Sprintf("Projected to run out of fuel around %s (EVE time).",
			offline.UTC().Format(offlineFormat)),
		Fallback: fmt.Sprintf("%s fuel state is %s.", s.DisplayName, ch.Current),
	}
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"starbase-monitor/internal/domain"
)

// SlackClient posts messages to a Slack incoming webhook.
type SlackClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewSlackClient(webhookURL string, timeout time.Duration) *SlackClient {
	return &SlackClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type slackAttachment struct {
	Fallback string `json:"fallback"`
	Color    string `json:"color"`
	Title    string `json:"title"`
	Text     string `json:"text"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

// Send delivers one message. Callers must not send empty messages; a
// run with no changes sends nothing at all.
func (c *SlackClient) Send(ctx context.Context, msg Message) error {
	payload := slackPayload{
		Text:        msg.Lead,
		Attachments: make([]slackAttachment, len(msg.Attachments)),
	}
	for i, a := range msg.Attachments {
		payload.Attachments[i] = slackAttachment{
			Fallback: a.Fallback,
			Color:    colorFor(a.Severity),
			Title:    a.Title,
			Text:     a.Body,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// colorFor maps a fuel state to Slack's named attachment colours.
func colorFor(severity string) string {
	switch domain.State(severity) {
	case domain.StateGood:
		return "good"
	case domain.StateWarning:
		return "warning"
	case domain.StateDanger:
		return "danger"
	default:
		return "#439fe0"
	}
}

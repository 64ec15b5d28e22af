// Package slack posts rendered sections to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"nutrisense"
)

const defaultUsername = "Nutrisense"

type Client struct {
	webhookURL string
	httpClient nutrisense.HTTPClient
	username   string
}

func NewClient(webhookURL string, httpClient nutrisense.HTTPClient) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
		username:   defaultUsername,
	}
}

type payload struct {
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
	Mrkdwn   bool   `json:"mrkdwn"`
}

// PostMessage sends message, converted from Markdown to Slack mrkdwn.
func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	body, err := json.Marshal(payload{
		Channel:  channel,
		Username: c.username,
		Text:     Mrkdwn(message),
		Mrkdwn:   true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("PRESENTER: Slack rejected message", "status", resp.Status, "body", strings.TrimSpace(string(detail)))
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}
	return nil
}

var (
	headingRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	boldRe    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	imageRe   = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

// Mrkdwn rewrites the Markdown the presenter emits into Slack's dialect:
// headings and **bold** become *bold*, images become "alt: path".
func Mrkdwn(s string) string {
	s = boldRe.ReplaceAllString(s, "*$1*")
	s = headingRe.ReplaceAllString(s, "*$1*")
	return imageRe.ReplaceAllString(s, "$1: $2")
}

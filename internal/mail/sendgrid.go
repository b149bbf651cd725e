package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const sendgridMailEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Client sends transactional account mail through the SendGrid v3 Mail Send
// API.
type Client struct {
	apiKey    string
	fromEmail string
	fromName  string
	endpoint  string
	httpc     *http.Client
}

func NewClient(apiKey, fromEmail, fromName string) *Client {
	return &Client{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		endpoint:  sendgridMailEndpoint,
		httpc:     http.DefaultClient,
	}
}

// SendWelcome greets a freshly registered user.
func (c *Client) SendWelcome(ctx context.Context, name, email string) error {
	return c.send(ctx, email,
		"Thanks for joining in!",
		fmt.Sprintf("Welcome to the task manager app, %s. Let us know how you get along with it.", name),
	)
}

// SendCancellation confirms an account deletion.
func (c *Client) SendCancellation(ctx context.Context, name, email string) error {
	return c.send(ctx, email,
		"Your account has been deleted",
		fmt.Sprintf("Goodbye, %s. Sorry to see you go. Let us know how we could have done better.", name),
	)
}

func (c *Client) send(ctx context.Context, to, subject, text string) error {
	payload := sgMailPayload{
		Personalizations: []sgPersonalization{{
			To: []sgAddress{{Email: to}},
		}},
		From:    sgAddress{Email: c.fromEmail, Name: c.fromName},
		Subject: subject,
		Content: []sgContent{{Type: "text/plain", Value: text}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal SendGrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create SendGrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("SendGrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SendGrid returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendGrid v3 Mail Send API payload types.
type sgMailPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

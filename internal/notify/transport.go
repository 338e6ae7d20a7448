package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ResendClient sends email through the Resend REST API.
type ResendClient struct {
	APIKey string
	From   string

	httpClient *http.Client
}

func NewResendClient(apiKey, from string) *ResendClient {
	return &ResendClient{
		APIKey:     apiKey,
		From:       from,
		httpClient: &http.Client{},
	}
}

func (c *ResendClient) SendEmail(ctx context.Context, to, subject, html string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("resend: %w", ErrChannelNotConfigured)
	}

	payload, err := json.Marshal(map[string]any{
		"from":    c.From,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return "", fmt.Errorf("resend: encoding request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("resend: building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("resend: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("resend: decoding response: %v", err)
	}
	return result.ID, nil
}

// TwilioWhatsAppClient sends WhatsApp messages through the Twilio Messages
// API. The sandbox number only reaches verified recipients; production use
// needs WhatsApp Business approval.
type TwilioWhatsAppClient struct {
	AccountSID string
	AuthToken  string
	From       string

	httpClient *http.Client
}

func NewTwilioWhatsAppClient(accountSID, authToken, from string) *TwilioWhatsAppClient {
	return &TwilioWhatsAppClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		httpClient: &http.Client{},
	}
}

func (c *TwilioWhatsAppClient) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	if c.AccountSID == "" || c.AuthToken == "" {
		return "", fmt.Errorf("twilio: %w", ErrChannelNotConfigured)
	}

	form := url.Values{}
	form.Set("From", c.From)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := "https://api.twilio.com/2010-04-01/Accounts/" + c.AccountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("twilio: building request: %v", err)
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("twilio: decoding response: %v", err)
	}
	return result.SID, nil
}

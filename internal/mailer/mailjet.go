package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/xxxsen/driveauth/internal/config"
)

const defaultMailjetEndpoint = "https://api.mailjet.com/v3.1/send"

type mailjetConfig struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
	Endpoint  string `json:"endpoint"`
}

type mailjetSender struct {
	cfg      mailjetConfig
	from     mailjetAddress
	client   *http.Client
	endpoint string
}

type mailjetAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mailjetMessage struct {
	From     mailjetAddress   `json:"From"`
	To       []mailjetAddress `json:"To"`
	Subject  string           `json:"Subject"`
	HTMLPart string           `json:"HTMLPart,omitempty"`
	TextPart string           `json:"TextPart,omitempty"`
}

type mailjetRequest struct {
	Messages []mailjetMessage `json:"Messages"`
}

type mailjetResponse struct {
	Messages []struct {
		Status string `json:"Status"`
		Errors []struct {
			ErrorMessage string `json:"ErrorMessage"`
		} `json:"Errors"`
	} `json:"Messages"`
}

func init() {
	Register("mailjet", createMailjetSender)
}

func createMailjetSender(cfg config.MailConfig) (Sender, error) {
	c := mailjetConfig{}
	if err := decodeData(cfg.Data, &c); err != nil {
		return nil, err
	}
	if c.APIKey == "" || c.SecretKey == "" {
		return nil, fmt.Errorf("mailjet api_key and secret_key are required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail.from is required")
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = defaultMailjetEndpoint
	}
	return &mailjetSender{
		cfg:      c,
		from:     mailjetAddress{Email: cfg.From, Name: cfg.FromName},
		client:   &http.Client{Timeout: cfg.Timeout()},
		endpoint: endpoint,
	}, nil
}

func (s *mailjetSender) Send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(&mailjetRequest{Messages: []mailjetMessage{{
		From:     s.from,
		To:       []mailjetAddress{{Email: msg.ToEmail, Name: msg.ToName}},
		Subject:  msg.Subject,
		HTMLPart: msg.HTML,
		TextPart: msg.Text,
	}}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.cfg.APIKey, s.cfg.SecretKey)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("mailjet read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailjet send: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	var result mailjetResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("mailjet decode response: %w", err)
	}
	for _, m := range result.Messages {
		if m.Status == "success" {
			continue
		}
		if len(m.Errors) > 0 {
			return fmt.Errorf("mailjet send: %s", m.Errors[0].ErrorMessage)
		}
		return fmt.Errorf("mailjet send: status %q", m.Status)
	}
	return nil
}

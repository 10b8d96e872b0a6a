package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Hanafy91/buddytour/config"
)

// Sender delivers booking confirmation emails through the MailerSend REST
// API. Delivery is best effort; callers log failures and move on.
type Sender struct {
	apiURL     string
	apiToken   string
	fromEmail  string
	fromName   string
	httpClient *http.Client
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{
		apiURL:     cfg.APIURL,
		apiToken:   cfg.APIToken,
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type party struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type message struct {
	From    party   `json:"from"`
	To      []party `json:"to"`
	Subject string  `json:"subject"`
	Text    string  `json:"text"`
	HTML    string  `json:"html"`
}

func (s *Sender) SendConfirmation(ctx context.Context, toEmail, toName, bookingRef string, amountCents int64) error {
	name := toName
	if name == "" {
		name = "Guest"
	}
	amount := float64(amountCents) / 100

	msg := message{
		From:    party{Email: s.fromEmail, Name: s.fromName},
		To:      []party{{Email: toEmail, Name: name}},
		Subject: "Booking Confirmation",
		Text:    fmt.Sprintf("Hi %s,\n\nYour tour booking %s is confirmed. Amount paid: %.2f.\n\nThank you for booking with Buddy Tour!", name, bookingRef, amount),
		HTML:    fmt.Sprintf("<h3>Hi %s,</h3><p>Your tour booking <strong>%s</strong> is confirmed. Amount paid: %.2f.</p><p>Thank you for booking with <strong>Buddy Tour</strong>!</p>", name, bookingRef, amount),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiToken)

	res, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("email api returned %d: %s", res.StatusCode, string(body))
	}
	return nil
}

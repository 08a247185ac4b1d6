package service

import (
	"encoding/json"
	"fmt"
	"log"

	"umamii/internal/util"
)

const (
	EmailExchange   = "umamii.emails"
	EmailQueue      = "email_send_queue"
	EmailRoutingKey = "email.send"
)

// EmailEvent is queued per outgoing mail, the email worker does the SMTP work
type EmailEvent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type EmailService interface {
	SendOTPEmail(to, code string) error
}

type emailService struct {
	rabbitClient *util.RabbitMQClient
}

func NewEmailService(rabbitClient *util.RabbitMQClient) EmailService {
	return &emailService{rabbitClient: rabbitClient}
}

// SendOTPEmail queues the login code mail. The SMTP round trip happens in the
// worker so the login endpoint stays fast.
func (s *emailService) SendOTPEmail(to, code string) error {
	event := EmailEvent{
		To:      to,
		Subject: "Your umamii login code",
		Body: fmt.Sprintf(
			"Your login code is %s\r\n\r\nIt expires in a few minutes. If you did not request it, you can ignore this email.\r\n",
			code,
		),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal email event: %w", err)
	}

	if err := s.rabbitClient.Publish(EmailExchange, EmailRoutingKey, body); err != nil {
		return fmt.Errorf("failed to queue email: %w", err)
	}

	log.Printf("Queued login code email for %s", to)
	return nil
}

package service

import (
	"encoding/json"
	"fmt"
	"log"
	"net/smtp"

	"umamii/internal/config"
	"umamii/internal/util"
)

// EmailWorker consumes queued mails and delivers them over SMTP
type EmailWorker struct {
	rabbitClient *util.RabbitMQClient
	cfg          *config.Config
}

func NewEmailWorker(rabbitClient *util.RabbitMQClient, cfg *config.Config) *EmailWorker {
	return &EmailWorker{
		rabbitClient: rabbitClient,
		cfg:          cfg,
	}
}

// Start declares the exchange and queue, then consumes until the channel
// closes. Call in a goroutine.
func (w *EmailWorker) Start() {
	if err := w.rabbitClient.DeclareDirectExchange(EmailExchange, EmailQueue, EmailRoutingKey); err != nil {
		log.Printf("Failed to declare email exchange: %v", err)
		return
	}

	msgs, err := w.rabbitClient.GetChannel().Consume(
		EmailQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Printf("Failed to start email consumer: %v", err)
		return
	}

	log.Println("Email worker started")

	for msg := range msgs {
		var event EmailEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Printf("Invalid email event, dropping: %v", err)
			msg.Nack(false, false)
			continue
		}

		if err := w.send(event); err != nil {
			log.Printf("Failed to send email to %s: %v", event.To, err)
			// Requeue once, the broker redelivers to another consumer or later
			msg.Nack(false, !msg.Redelivered)
			continue
		}

		msg.Ack(false)
	}

	log.Println("Email worker stopped, channel closed")
}

func (w *EmailWorker) send(event EmailEvent) error {
	if w.cfg.SMTPHost == "" {
		// Local setup without SMTP, surface the mail in the log instead
		log.Printf("SMTP not configured, email for %s: %s", event.To, event.Subject)
		return nil
	}

	addr := w.cfg.SMTPHost + ":" + w.cfg.SMTPPort
	auth := smtp.PlainAuth("", w.cfg.SMTPUser, w.cfg.SMTPPassword, w.cfg.SMTPHost)

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		w.cfg.SMTPFrom, event.To, event.Subject, event.Body,
	)

	return smtp.SendMail(addr, auth, w.cfg.SMTPFrom, []string{event.To}, []byte(message))
}

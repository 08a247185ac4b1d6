package service

import (
	"encoding/json"
	"log"

	"umamii/internal/util"
)

// NotificationPusher delivers a payload to a user's live connections.
// Satisfied by the websocket hub.
type NotificationPusher interface {
	BroadcastToUser(userID string, payload map[string]interface{})
}

// NotificationWorker consumes push events off RabbitMQ and forwards them to
// connected clients. Running delivery through the queue keeps the HTTP path
// free of websocket work and survives bursts.
type NotificationWorker struct {
	rabbitClient *util.RabbitMQClient
	pusher       NotificationPusher
}

func NewNotificationWorker(rabbitClient *util.RabbitMQClient, pusher NotificationPusher) *NotificationWorker {
	return &NotificationWorker{
		rabbitClient: rabbitClient,
		pusher:       pusher,
	}
}

// Start declares the exchange and queue, then consumes until the channel
// closes. Call in a goroutine.
func (w *NotificationWorker) Start() {
	if err := w.rabbitClient.DeclareDirectExchange(NotificationExchange, NotificationQueue, NotificationRoutingKey); err != nil {
		log.Printf("Failed to declare notification exchange: %v", err)
		return
	}

	msgs, err := w.rabbitClient.GetChannel().Consume(
		NotificationQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Printf("Failed to start notification consumer: %v", err)
		return
	}

	log.Println("Notification worker started")

	for msg := range msgs {
		var event PushEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Printf("Invalid push event, dropping: %v", err)
			msg.Nack(false, false)
			continue
		}

		w.pusher.BroadcastToUser(event.UserID, map[string]interface{}{
			"notification_id": event.NotificationID,
			"type":            event.Type,
			"title":           event.Title,
			"message":         event.Message,
			"target_id":       event.TargetID,
			"sender_id":       event.SenderID,
		})

		msg.Ack(false)
	}

	log.Println("Notification worker stopped, channel closed")
}

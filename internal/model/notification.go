package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types surfaced on the admin dashboard.
const (
	NotificationTamperAttempt  = "tamper_attempt"
	NotificationSupportMessage = "support_message"
)

// Notification is an event surfaced to an admin on the console.
type Notification struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"admin_id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	ClientID   string    `json:"client_id,omitempty"`
	ClientName string    `json:"client_name,omitempty"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewNotification creates a notification with a fresh ID.
func NewNotification(adminID, notifType, title, message, clientID, clientName string) *Notification {
	return &Notification{
		ID:         uuid.New().String(),
		AdminID:    adminID,
		Type:       notifType,
		Title:      title,
		Message:    message,
		ClientID:   clientID,
		ClientName: clientName,
		CreatedAt:  time.Now().UTC(),
	}
}

// Support message senders.
const (
	SenderAdmin  = "admin"
	SenderClient = "client"
)

// SupportMessage is a chat message between a client device and its admin.
type SupportMessage struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSupportMessage creates a support message with a fresh ID.
func NewSupportMessage(clientID, sender, message string) *SupportMessage {
	return &SupportMessage{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Sender:    sender,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

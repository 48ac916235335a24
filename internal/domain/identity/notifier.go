package identity

import "context"

// Notification is a message for a user carrying a single action link
type Notification struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Link   string `json:"link"`
}

// Notifier delivers account emails. Delivery channels live in infrastructure.
type Notifier interface {
	// SendVerification sends the email-verification link after registration
	SendVerification(ctx context.Context, n Notification) error

	// SendPasswordReset sends the link issued by forgot-password
	SendPasswordReset(ctx context.Context, n Notification) error
}

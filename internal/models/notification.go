package models

import "time"

// NotificationSeverity ranks outbound notifications.
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "INFO"
	SeverityWarning NotificationSeverity = "WARNING"
	SeverityAction  NotificationSeverity = "ACTION"
)

// Notification is an outbound message handed to the delivery sink. Delivery
// is best effort; the engine never observes delivery success.
type Notification struct {
	ID            string               `db:"id" json:"id"`
	RecipientID   string               `db:"recipient_id" json:"recipient_id"`
	Title         string               `db:"title" json:"title"`
	Body          string               `db:"body" json:"body"`
	Severity      NotificationSeverity `db:"severity" json:"severity"`
	ActionURL     *string              `db:"action_url" json:"action_url,omitempty"`
	CorrelationID *string              `db:"correlation_id" json:"correlation_id,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
}

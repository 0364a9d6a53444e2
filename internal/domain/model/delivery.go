package model

import "time"

// DeliveryStatus represents the state of a webhook delivery.
type DeliveryStatus string

const (
	// DeliveryStatusPending indicates the delivery has not succeeded yet.
	DeliveryStatusPending DeliveryStatus = "pending"
	// DeliveryStatusDelivered indicates the receiver acknowledged the notification.
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	// DeliveryStatusExhausted indicates all delivery attempts failed; the row
	// is kept for manual inspection.
	DeliveryStatusExhausted DeliveryStatus = "exhausted"
)

// Valid returns true if the DeliveryStatus is valid.
func (s DeliveryStatus) Valid() bool {
	return s == DeliveryStatusPending || s == DeliveryStatusDelivered || s == DeliveryStatusExhausted
}

// WebhookDelivery records one outbound completion notification. Deliveries
// reference a completed job but never block or roll back its status;
// notification is a best-effort side channel.
type WebhookDelivery struct {
	ID               string         `json:"id"                    db:"id"`
	JobID            string         `json:"job_id"                db:"job_id"`
	Endpoint         string         `json:"endpoint"              db:"endpoint"`
	PayloadSignature string         `json:"payload_signature"     db:"payload_signature"`
	Status           DeliveryStatus `json:"status"                db:"status"`
	AttemptCount     int            `json:"attempt_count"         db:"attempt_count"`
	MaxAttempts      int            `json:"max_attempts"          db:"max_attempts"`
	LastError        *string        `json:"last_error,omitempty"  db:"last_error"`
	DeliveredAt      *time.Time     `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt        time.Time      `json:"created_at"            db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"            db:"updated_at"`
}

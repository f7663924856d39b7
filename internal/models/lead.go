package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the raw contact form body. Website is a hidden honeypot
// field that real browsers leave empty.
type Submission struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Website string `json:"website"`
}

// Lead is a submission that passed every gate, with normalized fields
type Lead struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Message    string    `json:"message"`
	ClientID   string    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}

// LeadEvent is the payload published when leads are delivered over Kafka
type LeadEvent struct {
	LeadID     string    `json:"lead_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Message    string    `json:"message"`
	Source     string    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
}

func (l *Lead) Event(source string) LeadEvent {
	return LeadEvent{
		LeadID:     l.ID.String(),
		Name:       l.Name,
		Phone:      l.Phone,
		Message:    l.Message,
		Source:     source,
		ReceivedAt: l.ReceivedAt,
	}
}

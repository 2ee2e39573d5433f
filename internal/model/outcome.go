package model

import "time"

// SendOutcome is the per-recipient result of a send loop iteration
type SendOutcome string

const (
	OutcomeSent         SendOutcome = "sent"
	OutcomeFailed       SendOutcome = "failed"
	OutcomeSkippedEmpty SendOutcome = "skipped_empty_address"
	OutcomePreviewed    SendOutcome = "previewed"
)

// Delivery records what happened to one recipient
type Delivery struct {
	Contact  Contact       `json:"contact"`
	Outcome  SendOutcome   `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

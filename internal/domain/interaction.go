package domain

import "time"

// InteractionKind enumerates user interactions recorded by the API layer.
type InteractionKind string

const (
	InteractionClick   InteractionKind = "click"
	InteractionSave    InteractionKind = "save"
	InteractionDismiss InteractionKind = "dismiss"
	InteractionShare   InteractionKind = "share"
)

// InteractionEvent is an append-only record of a user touching an item.
type InteractionEvent struct {
	ID         int64
	ItemID     int64
	Kind       InteractionKind
	OccurredAt time.Time
	Metadata   map[string]any
}

// PriorityPromotion raises an item to High. It is the only write the feedback adapter issues.
type PriorityPromotion struct {
	ItemID int64
}

// ClassificationUpdate replaces the classification fields of an item after retraining.
// Stores never lower a priority that is already High.
type ClassificationUpdate struct {
	ItemID   int64
	Category string
	Priority Priority
	KeyTerms []string
}

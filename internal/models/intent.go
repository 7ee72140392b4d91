package models

import "time"

// IntentStatus is the lifecycle state of an Intent.
type IntentStatus string

const (
	IntentStatusActive    IntentStatus = "ACTIVE"
	IntentStatusCompleted IntentStatus = "COMPLETED"
	IntentStatusPaused    IntentStatus = "PAUSED"
)

// Intent is a declared, scoped unit of work loaded from the declarative
// intent store. Intents are read-only at runtime; the store may reload
// between operations but never mid-operation.
type Intent struct {
	ID                 string       `yaml:"id" json:"id"`
	Name               string       `yaml:"name" json:"name"`
	Status             IntentStatus `yaml:"status" json:"status"`
	OwnedScope         []string     `yaml:"owned_scope" json:"owned_scope"`
	Constraints        []string     `yaml:"constraints" json:"constraints"`
	AcceptanceCriteria []string     `yaml:"acceptance_criteria" json:"acceptance_criteria"`
	CreatedAt          *time.Time   `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt          *time.Time   `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IntentDocument is the root shape of the declarative intent store.
type IntentDocument struct {
	ActiveIntents []Intent `yaml:"active_intents"`
}

package models

import "time"

// ConversationLog is an immutable record of one completed interaction.
// Logs are created once per session and never updated, only deleted.
// Agent and participant references are weak: deleting either side leaves
// the log in place.
type ConversationLog struct {
	ID            string  `gorm:"primaryKey;size:36" json:"id"`
	AgentID       *string `gorm:"size:36;index" json:"experiment_id,omitempty"`
	ParticipantID *string `gorm:"size:36;index" json:"participant_id,omitempty"`

	SessionID   string `gorm:"not null;index" json:"session_id"`
	AgentConfig string `gorm:"not null;index" json:"agent_config"`
	AgentName   string `gorm:"not null" json:"agent_name"`

	Transcript map[string]any `gorm:"serializer:json;type:json;not null" json:"transcript"`
	Duration   float64        `gorm:"not null" json:"duration"`
	TurnCount  int            `gorm:"not null" json:"turn_count"`

	// Evaluation metrics; both are tri-state and feed the agent's
	// rolling statistics.
	UserSatisfaction *int  `json:"user_satisfaction,omitempty"`
	TaskCompleted    *bool `json:"task_completed,omitempty"`

	Metadata map[string]any `gorm:"serializer:json;type:json" json:"extra_metadata,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

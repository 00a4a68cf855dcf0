package models

import "time"

// Agent is a named, versioned configuration of a conversational agent:
// the prompt content plus sampling parameters, with rolling performance
// statistics maintained as conversation logs are recorded.
type Agent struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"not null;index" json:"name"`

	// Routing key: at most one agent per (agent_config, agent_name)
	// pair may be active at a time.
	AgentConfig string `gorm:"not null;index" json:"agent_config"`
	AgentName   string `gorm:"not null;index" json:"agent_name"`

	SystemPrompt string `gorm:"type:text;not null" json:"system_prompt"`
	Instructions string `gorm:"type:text" json:"instructions,omitempty"`

	Temperature float64 `gorm:"default:0.8" json:"temperature"`
	MaxTokens   *int    `json:"max_tokens,omitempty"`
	Voice       string  `gorm:"size:64" json:"voice,omitempty"`

	Description string   `gorm:"type:text" json:"description,omitempty"`
	Tags        []string `gorm:"serializer:json;type:json" json:"tags"`
	IsActive    bool     `gorm:"default:false;index" json:"is_active"`

	SuccessRate *float64 `json:"success_rate,omitempty"`
	AvgDuration *float64 `json:"avg_duration,omitempty"`
	TotalRuns   int      `gorm:"default:0" json:"total_runs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Conversations []ConversationLog `gorm:"foreignKey:AgentID" json:"-"`
}

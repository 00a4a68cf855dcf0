package models

import "time"

// Assignment binds one participant to one agent with a position in that
// participant's sequence. Order (persisted as sort_order; ORDER is a
// reserved word in MySQL) defines the canonical front-to-back sequence.
// IsActive and Completed are independent flags: an assignment may be
// inactive and incomplete (not yet started), active, or completed.
type Assignment struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	ParticipantID string `gorm:"not null;size:36;index" json:"participant_id"`
	AgentID       string `gorm:"not null;size:36;index" json:"agent_id"`

	// Denormalized from the agent at assignment time, e.g.
	// "customerServiceRetail" / "Sales Agent".
	AgentConfig string `gorm:"not null" json:"agent_config"`
	AgentName   string `gorm:"not null" json:"agent_name"`

	IsActive  bool `gorm:"default:true;index" json:"is_active"`
	Completed bool `gorm:"default:false" json:"completed"`

	Order int `gorm:"column:sort_order;default:0" json:"order"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Participant Participant `gorm:"foreignKey:ParticipantID" json:"-"`
	Agent       Agent       `gorm:"foreignKey:AgentID" json:"-"`
}

// TableName keeps the table name of the original schema.
func (Assignment) TableName() string {
	return "participant_agent_assignments"
}

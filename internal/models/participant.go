package models

import "time"

// Participant is a study participant or guest session. The ParticipantID
// field is the externally visible identifier handed to participants;
// ID is the internal primary key used for all foreign keys.
type Participant struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	ParticipantID string `gorm:"uniqueIndex;not null;size:64" json:"participant_id"`

	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	// Guests pick among active agents instead of following assignments.
	IsGuest bool `gorm:"default:false;index" json:"is_guest"`

	Metadata map[string]any `gorm:"serializer:json;type:json" json:"extra_metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assignments []Assignment `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
}

// Package session resolves a participant's current operating mode: guest
// participants get the list of active agents to choose from, assigned
// participants get the configuration of their first active incomplete
// assignment. The resolution is a pure read recomputed per call.
package session

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/models"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/participant"
)

// AgentChoice is one candidate agent offered to a guest participant.
type AgentChoice struct {
	ExperimentID string `json:"experiment_id"`
	Name         string `json:"name"`
	AgentConfig  string `json:"agent_config"`
	AgentName    string `json:"agent_name"`
	Description  string `json:"description,omitempty"`
}

// AssignedConfig is the full agent configuration joined with assignment
// metadata, returned to a non-guest participant.
type AssignedConfig struct {
	AssignmentID   string  `json:"assignment_id"`
	ExperimentID   string  `json:"experiment_id"`
	AgentConfig    string  `json:"agent_config"`
	AgentName      string  `json:"agent_name"`
	ExperimentName string  `json:"experiment_name"`
	SystemPrompt   string  `json:"system_prompt"`
	Instructions   string  `json:"instructions,omitempty"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      *int    `json:"max_tokens,omitempty"`
	Voice          string  `json:"voice,omitempty"`
	Order          int     `json:"order"`
}

// Config is the resolved session configuration for a participant.
// Mode is "guest" or "assigned"; exactly one of AvailableAgents or
// Assignment is populated.
type Config struct {
	ParticipantID   string          `json:"participant_id"`
	IsGuest         bool            `json:"is_guest"`
	Mode            string          `json:"mode"`
	AvailableAgents []AgentChoice   `json:"available_agents,omitempty"`
	Assignment      *AssignedConfig `json:"assignment,omitempty"`
}

// ResolveConfig computes the session configuration for the participant
// with the given external id.
func ResolveConfig(gormDB *gorm.DB, externalID string) (*Config, error) {
	p, err := participant.Get(gormDB, externalID)
	if err != nil {
		return nil, err
	}

	if p.IsGuest {
		return guestConfig(gormDB, p)
	}
	return assignedConfig(gormDB, p)
}

// guestConfig lists every currently active agent as a candidate choice;
// the system never picks one for a guest.
func guestConfig(gormDB *gorm.DB, p *models.Participant) (*Config, error) {
	var agents []models.Agent
	if err := gormDB.Where("is_active = ?", true).Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("session: list active agents: %w", err)
	}

	choices := make([]AgentChoice, len(agents))
	for i, a := range agents {
		choices[i] = AgentChoice{
			ExperimentID: a.ID,
			Name:         a.Name,
			AgentConfig:  a.AgentConfig,
			AgentName:    a.AgentName,
			Description:  a.Description,
		}
	}
	return &Config{
		ParticipantID:   p.ParticipantID,
		IsGuest:         true,
		Mode:            "guest",
		AvailableAgents: choices,
	}, nil
}

// assignedConfig resolves the participant's first active incomplete
// assignment and joins it with the linked agent's configuration.
func assignedConfig(gormDB *gorm.DB, p *models.Participant) (*Config, error) {
	var assign models.Assignment
	err := gormDB.Where("participant_id = ? AND is_active = ? AND completed = ?",
		p.ID, true, false).
		Order("sort_order ASC, created_at ASC").First(&assign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session: no active assignment for participant %s", p.ParticipantID)
		}
		return nil, fmt.Errorf("session: find assignment for %s: %w", p.ID, err)
	}

	var a models.Agent
	if err := gormDB.Where("id = ?", assign.AgentID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session: agent %s for assignment %s", assign.AgentID, assign.ID)
		}
		return nil, fmt.Errorf("session: get agent %s: %w", assign.AgentID, err)
	}

	return &Config{
		ParticipantID: p.ParticipantID,
		IsGuest:       false,
		Mode:          "assigned",
		Assignment: &AssignedConfig{
			AssignmentID:   assign.ID,
			ExperimentID:   a.ID,
			AgentConfig:    assign.AgentConfig,
			AgentName:      assign.AgentName,
			ExperimentName: a.Name,
			SystemPrompt:   a.SystemPrompt,
			Instructions:   a.Instructions,
			Temperature:    a.Temperature,
			MaxTokens:      a.MaxTokens,
			Voice:          a.Voice,
			Order:          assign.Order,
		},
	}, nil
}

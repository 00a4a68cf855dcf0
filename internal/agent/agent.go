// Package agent provides agent/experiment-prompt lifecycle operations,
// including the single-active-agent rule: at most one agent per
// (agent_config, agent_name) pair may be active at a time.
package agent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/models"
)

// ListFilters holds optional filters for listing agents.
type ListFilters struct {
	AgentConfig string
	AgentName   string
	IsActive    *bool
	Tags        []string // overlap: any shared tag matches
}

// CreateOpts holds parameters for creating a new agent.
type CreateOpts struct {
	Name         string
	AgentConfig  string
	AgentName    string
	SystemPrompt string
	Instructions string
	Temperature  *float64 // nil → 0.8
	MaxTokens    *int
	Voice        string
	Description  string
	Tags         []string
	IsActive     bool
}

// UpdateOpts holds a partial patch for an agent; nil fields are left
// unchanged.
type UpdateOpts struct {
	Name         *string
	SystemPrompt *string
	Instructions *string
	Temperature  *float64
	MaxTokens    *int
	Voice        *string
	Description  *string
	Tags         []string
	IsActive     *bool
	SuccessRate  *float64
	AvgDuration  *float64
}

// List returns agents matching the given filters, newest-updated first.
// The tag filter is applied after the scan: tags live in a JSON column,
// so overlap cannot be expressed portably in SQL.
func List(gormDB *gorm.DB, filters ListFilters) ([]models.Agent, error) {
	q := gormDB.Model(&models.Agent{})

	if filters.AgentConfig != "" {
		q = q.Where("agent_config = ?", filters.AgentConfig)
	}
	if filters.AgentName != "" {
		q = q.Where("agent_name = ?", filters.AgentName)
	}
	if filters.IsActive != nil {
		q = q.Where("is_active = ?", *filters.IsActive)
	}

	var agents []models.Agent
	if err := q.Order("updated_at DESC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("agent: list: %w", err)
	}

	if len(filters.Tags) > 0 {
		agents = filterByTagOverlap(agents, filters.Tags)
	}
	return agents, nil
}

// filterByTagOverlap keeps agents sharing at least one tag with want.
func filterByTagOverlap(agents []models.Agent, want []string) []models.Agent {
	wanted := make(map[string]bool, len(want))
	for _, tag := range want {
		wanted[tag] = true
	}
	matched := agents[:0]
	for _, a := range agents {
		for _, tag := range a.Tags {
			if wanted[tag] {
				matched = append(matched, a)
				break
			}
		}
	}
	return matched
}

// Get retrieves an agent by ID.
func Get(gormDB *gorm.DB, id string) (*models.Agent, error) {
	var a models.Agent
	if err := gormDB.Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("agent: %s", id)
		}
		return nil, fmt.Errorf("agent: get %s: %w", id, err)
	}
	return &a, nil
}

// GetActiveByName returns the single active agent for a
// (agent_config, agent_name) pair, or not-found if none is active.
func GetActiveByName(gormDB *gorm.DB, agentConfig, agentName string) (*models.Agent, error) {
	var a models.Agent
	err := gormDB.Where("agent_config = ? AND agent_name = ? AND is_active = ?",
		agentConfig, agentName, true).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("agent: no active agent for %s/%s", agentConfig, agentName)
		}
		return nil, fmt.Errorf("agent: get active %s/%s: %w", agentConfig, agentName, err)
	}
	return &a, nil
}

// Create creates a new agent. If opts.IsActive, every other agent with
// the same (agent_config, agent_name) pair is deactivated in the same
// transaction, so the pair never has two committed active records.
func Create(gormDB *gorm.DB, opts CreateOpts) (*models.Agent, error) {
	if opts.Name == "" {
		return nil, apperr.Conflict("agent: name is required")
	}
	if opts.AgentConfig == "" || opts.AgentName == "" {
		return nil, apperr.Conflict("agent: agent_config and agent_name are required")
	}
	if opts.SystemPrompt == "" {
		return nil, apperr.Conflict("agent: system_prompt is required")
	}

	temperature := 0.8
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	tags := opts.Tags
	if tags == nil {
		tags = []string{}
	}

	a := models.Agent{
		ID:           uuid.NewString(),
		Name:         opts.Name,
		AgentConfig:  opts.AgentConfig,
		AgentName:    opts.AgentName,
		SystemPrompt: opts.SystemPrompt,
		Instructions: opts.Instructions,
		Temperature:  temperature,
		MaxTokens:    opts.MaxTokens,
		Voice:        opts.Voice,
		Description:  opts.Description,
		Tags:         tags,
		IsActive:     opts.IsActive,
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		if a.IsActive {
			if err := lockPair(tx, a.AgentConfig, a.AgentName); err != nil {
				return err
			}
			if err := deactivateOthers(tx, a.AgentConfig, a.AgentName, a.ID); err != nil {
				return err
			}
		}
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	return &a, nil
}

// Update applies a partial patch to an agent. Setting IsActive to true
// deactivates every other agent with the same (agent_config, agent_name)
// pair inside the same transaction.
func Update(gormDB *gorm.DB, id string, opts UpdateOpts) (*models.Agent, error) {
	var a models.Agent
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("agent: %s", id)
			}
			return fmt.Errorf("agent: get %s for update: %w", id, err)
		}

		if opts.IsActive != nil && *opts.IsActive {
			if err := lockPair(tx, a.AgentConfig, a.AgentName); err != nil {
				return fmt.Errorf("agent: %w", err)
			}
			if err := deactivateOthers(tx, a.AgentConfig, a.AgentName, a.ID); err != nil {
				return fmt.Errorf("agent: %w", err)
			}
		}

		applyPatch(&a, opts)
		if err := tx.Save(&a).Error; err != nil {
			return fmt.Errorf("agent: update %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func applyPatch(a *models.Agent, opts UpdateOpts) {
	if opts.Name != nil {
		a.Name = *opts.Name
	}
	if opts.SystemPrompt != nil {
		a.SystemPrompt = *opts.SystemPrompt
	}
	if opts.Instructions != nil {
		a.Instructions = *opts.Instructions
	}
	if opts.Temperature != nil {
		a.Temperature = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		a.MaxTokens = opts.MaxTokens
	}
	if opts.Voice != nil {
		a.Voice = *opts.Voice
	}
	if opts.Description != nil {
		a.Description = *opts.Description
	}
	if opts.Tags != nil {
		a.Tags = opts.Tags
	}
	if opts.IsActive != nil {
		a.IsActive = *opts.IsActive
	}
	if opts.SuccessRate != nil {
		a.SuccessRate = opts.SuccessRate
	}
	if opts.AvgDuration != nil {
		a.AvgDuration = opts.AvgDuration
	}
}

// lockPair takes SELECT ... FOR UPDATE locks on every agent sharing the
// (agent_config, agent_name) pair. Under MySQL REPEATABLE READ the
// plain deactivate UPDATE is not enough: two activations for the same
// pair can each see zero rows to deactivate and both commit active
// records. The locking read (with its index gap locks) serializes them.
//
// SQLite has no row-level locking; its single writer serializes
// transactions anyway, and the driver drops the clause.
func lockPair(tx *gorm.DB, agentConfig, agentName string) error {
	var ids []string
	err := tx.Model(&models.Agent{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("agent_config = ? AND agent_name = ?", agentConfig, agentName).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("lock pair %s/%s: %w", agentConfig, agentName, err)
	}
	return nil
}

// deactivateOthers clears is_active on every agent sharing the
// (agent_config, agent_name) pair except excludeID.
func deactivateOthers(tx *gorm.DB, agentConfig, agentName, excludeID string) error {
	err := tx.Model(&models.Agent{}).
		Where("agent_config = ? AND agent_name = ? AND is_active = ? AND id != ?",
			agentConfig, agentName, true, excludeID).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("deactivate others for %s/%s: %w", agentConfig, agentName, err)
	}
	return nil
}

// Delete removes an agent. It is rejected while any assignment still
// references the agent; conversation logs are a weak reference and have
// their agent_id cleared instead.
func Delete(gormDB *gorm.DB, id string) error {
	return gormDB.Transaction(func(tx *gorm.DB) error {
		var a models.Agent
		if err := tx.Where("id = ?", id).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("agent: %s", id)
			}
			return fmt.Errorf("agent: get %s for delete: %w", id, err)
		}

		var refs int64
		if err := tx.Model(&models.Assignment{}).Where("agent_id = ?", id).Count(&refs).Error; err != nil {
			return fmt.Errorf("agent: count assignments for %s: %w", id, err)
		}
		if refs > 0 {
			return apperr.Conflict("agent: %s is referenced by %d assignment(s); delete or reassign them first", id, refs)
		}

		if err := tx.Model(&models.ConversationLog{}).Where("agent_id = ?", id).
			Update("agent_id", nil).Error; err != nil {
			return fmt.Errorf("agent: clear log references for %s: %w", id, err)
		}

		if err := tx.Delete(&a).Error; err != nil {
			return fmt.Errorf("agent: delete %s: %w", id, err)
		}
		return nil
	})
}

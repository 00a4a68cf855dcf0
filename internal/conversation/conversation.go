// Package conversation provides conversation-log operations. Logs are
// immutable; creating one recomputes the linked agent's rolling
// statistics in the same transaction.
package conversation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/models"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/participant"
)

// Page size bounds for listing conversations.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ListFilters holds optional filters for listing conversation logs.
type ListFilters struct {
	AgentID     string // "experiment_id" in the API
	AgentConfig string
	Limit       int // clamped to [1, MaxLimit]; 0 → DefaultLimit
}

// CreateOpts holds parameters for recording a completed interaction.
type CreateOpts struct {
	SessionID      string
	AgentConfig    string
	AgentName      string
	Transcript     map[string]any
	Duration       float64
	TurnCount      int
	AgentID        string // optional link that drives stats
	ParticipantRef string // optional; resolved to internal id
	Satisfaction   *int   // 1–5
	TaskCompleted  *bool
	Metadata       map[string]any
}

// List returns conversation logs, newest first, capped by Limit.
func List(gormDB *gorm.DB, filters ListFilters) ([]models.ConversationLog, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	q := gormDB.Model(&models.ConversationLog{})
	if filters.AgentID != "" {
		q = q.Where("agent_id = ?", filters.AgentID)
	}
	if filters.AgentConfig != "" {
		q = q.Where("agent_config = ?", filters.AgentConfig)
	}

	var logs []models.ConversationLog
	if err := q.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("conversation: list: %w", err)
	}
	return logs, nil
}

// Get retrieves a conversation log by ID.
func Get(gormDB *gorm.DB, id string) (*models.ConversationLog, error) {
	var log models.ConversationLog
	if err := gormDB.Where("id = ?", id).First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("conversation: %s", id)
		}
		return nil, fmt.Errorf("conversation: get %s: %w", id, err)
	}
	return &log, nil
}

// Create records a conversation log. When the log links an agent, the
// agent's total_runs, avg_duration and success_rate are recomputed from
// all of its logs inside the same transaction as the insert, so the log
// and its statistics commit or roll back together.
func Create(gormDB *gorm.DB, opts CreateOpts) (*models.ConversationLog, error) {
	if opts.SessionID == "" {
		return nil, apperr.Conflict("conversation: session_id is required")
	}
	if opts.Transcript == nil {
		return nil, apperr.Conflict("conversation: transcript is required")
	}
	if opts.Satisfaction != nil && (*opts.Satisfaction < 1 || *opts.Satisfaction > 5) {
		return nil, apperr.Conflict("conversation: user_satisfaction %d outside 1-5", *opts.Satisfaction)
	}

	log := models.ConversationLog{
		ID:               uuid.NewString(),
		SessionID:        opts.SessionID,
		AgentConfig:      opts.AgentConfig,
		AgentName:        opts.AgentName,
		Transcript:       opts.Transcript,
		Duration:         opts.Duration,
		TurnCount:        opts.TurnCount,
		UserSatisfaction: opts.Satisfaction,
		TaskCompleted:    opts.TaskCompleted,
		Metadata:         opts.Metadata,
	}
	if opts.AgentID != "" {
		log.AgentID = &opts.AgentID
	}
	if opts.ParticipantRef != "" {
		internalID, err := participant.Resolve(gormDB, opts.ParticipantRef)
		if err != nil {
			return nil, err
		}
		log.ParticipantID = &internalID
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&log).Error; err != nil {
			return fmt.Errorf("create: %w", err)
		}
		if log.AgentID != nil {
			if err := recomputeStats(tx, *log.AgentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}
	return &log, nil
}

// recomputeStats re-aggregates an agent's statistics from all of its
// logs. Full re-aggregation is deliberate: an incremental running mean
// drifts from the true mean under floating-point error. A log linked to
// a since-deleted agent is not an error.
func recomputeStats(tx *gorm.DB, agentID string) error {
	var a models.Agent
	if err := tx.Where("id = ?", agentID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("stats: get agent %s: %w", agentID, err)
	}

	var avg float64
	if err := tx.Model(&models.ConversationLog{}).
		Where("agent_id = ?", agentID).
		Select("AVG(duration)").Scan(&avg).Error; err != nil {
		return fmt.Errorf("stats: avg duration for %s: %w", agentID, err)
	}

	var scored, succeeded int64
	if err := tx.Model(&models.ConversationLog{}).
		Where("agent_id = ? AND task_completed IS NOT NULL", agentID).
		Count(&scored).Error; err != nil {
		return fmt.Errorf("stats: scored count for %s: %w", agentID, err)
	}
	if err := tx.Model(&models.ConversationLog{}).
		Where("agent_id = ? AND task_completed = ?", agentID, true).
		Count(&succeeded).Error; err != nil {
		return fmt.Errorf("stats: succeeded count for %s: %w", agentID, err)
	}

	updates := map[string]interface{}{
		"total_runs":   gorm.Expr("total_runs + 1"),
		"avg_duration": avg,
	}
	if scored > 0 {
		updates["success_rate"] = float64(succeeded) / float64(scored) * 100
	}
	if err := tx.Model(&models.Agent{}).Where("id = ?", agentID).Updates(updates).Error; err != nil {
		return fmt.Errorf("stats: update agent %s: %w", agentID, err)
	}
	return nil
}

// Delete removes a conversation log. Unguarded: always permitted.
// Statistics are not recomputed on deletion, matching the write-side
// contract that only log creation triggers aggregation.
func Delete(gormDB *gorm.DB, id string) error {
	log, err := Get(gormDB, id)
	if err != nil {
		return err
	}
	if err := gormDB.Delete(log).Error; err != nil {
		return fmt.Errorf("conversation: delete %s: %w", id, err)
	}
	return nil
}

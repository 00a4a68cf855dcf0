// Package assignment provides participant-agent assignment operations:
// sequencing, bulk creation with partial success, and completion with
// the advisory next-assignment lookup.
package assignment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/models"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/participant"
)

// ListFilters holds optional filters for listing assignments.
// ParticipantRef accepts either an internal or external participant id.
type ListFilters struct {
	ParticipantRef string
	AgentID        string
	IsActive       *bool
}

// CreateOpts holds parameters for creating a new assignment.
// ParticipantRef is resolved to the internal id before insertion.
type CreateOpts struct {
	ParticipantRef string
	AgentID        string
	AgentConfig    string
	AgentName      string
	IsActive       *bool // nil → true
	Completed      bool
	Order          int
	Notes          string
}

// UpdateOpts holds a partial patch for an assignment.
type UpdateOpts struct {
	IsActive  *bool
	Completed *bool
	Order     *int
	Notes     *string
}

// BulkFailure describes one rejected item of a bulk create.
type BulkFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// CompleteResult reports the outcome of completing an assignment. The
// next assignment is informational only; completion never activates it.
type CompleteResult struct {
	HasNext          bool
	NextAssignmentID string
}

// List returns assignments in canonical sequence order
// (sort_order ascending, then created_at).
func List(gormDB *gorm.DB, filters ListFilters) ([]models.Assignment, error) {
	q := gormDB.Model(&models.Assignment{})

	if filters.ParticipantRef != "" {
		internalID, err := participant.Resolve(gormDB, filters.ParticipantRef)
		if err != nil {
			if apperr.IsNotFound(err) {
				// Unknown participant simply matches nothing,
				// mirroring the filter semantics of the list call.
				return []models.Assignment{}, nil
			}
			return nil, err
		}
		q = q.Where("participant_id = ?", internalID)
	}
	if filters.AgentID != "" {
		q = q.Where("agent_id = ?", filters.AgentID)
	}
	if filters.IsActive != nil {
		q = q.Where("is_active = ?", *filters.IsActive)
	}

	var assignments []models.Assignment
	if err := q.Order("sort_order ASC, created_at ASC").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("assignment: list: %w", err)
	}
	return assignments, nil
}

// Get retrieves an assignment by ID.
func Get(gormDB *gorm.DB, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := gormDB.Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("assignment: %s", id)
		}
		return nil, fmt.Errorf("assignment: get %s: %w", id, err)
	}
	return &a, nil
}

// validate checks that the referenced participant and agent exist and
// returns the resolved internal participant id.
func validate(gormDB *gorm.DB, opts CreateOpts) (string, error) {
	internalID, err := participant.Resolve(gormDB, opts.ParticipantRef)
	if err != nil {
		return "", err
	}

	var count int64
	if err := gormDB.Model(&models.Agent{}).Where("id = ?", opts.AgentID).Count(&count).Error; err != nil {
		return "", fmt.Errorf("assignment: check agent %s: %w", opts.AgentID, err)
	}
	if count == 0 {
		return "", apperr.NotFound("agent: %s", opts.AgentID)
	}
	return internalID, nil
}

func build(internalID string, opts CreateOpts) models.Assignment {
	isActive := true
	if opts.IsActive != nil {
		isActive = *opts.IsActive
	}
	return models.Assignment{
		ID:            uuid.NewString(),
		ParticipantID: internalID,
		AgentID:       opts.AgentID,
		AgentConfig:   opts.AgentConfig,
		AgentName:     opts.AgentName,
		IsActive:      isActive,
		Completed:     opts.Completed,
		Order:         opts.Order,
		Notes:         opts.Notes,
	}
}

// Create creates a new assignment after verifying that both the
// participant and the agent exist.
func Create(gormDB *gorm.DB, opts CreateOpts) (*models.Assignment, error) {
	internalID, err := validate(gormDB, opts)
	if err != nil {
		return nil, err
	}
	a := build(internalID, opts)
	if err := gormDB.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("assignment: create: %w", err)
	}
	return &a, nil
}

// CreateBulk validates each item independently, collecting failures with
// their index and cause, and commits all valid items in one transaction.
// A commit failure rolls back the entire batch.
func CreateBulk(gormDB *gorm.DB, items []CreateOpts) ([]models.Assignment, []BulkFailure, error) {
	// Non-nil so an all-failed batch serializes as an empty JSON array.
	valid := []models.Assignment{}
	var failures []BulkFailure
	for i, opts := range items {
		internalID, err := validate(gormDB, opts)
		if err != nil {
			failures = append(failures, BulkFailure{Index: i, Error: err.Error()})
			continue
		}
		valid = append(valid, build(internalID, opts))
	}

	if len(valid) > 0 {
		err := gormDB.Transaction(func(tx *gorm.DB) error {
			for i := range valid {
				if err := tx.Create(&valid[i]).Error; err != nil {
					return fmt.Errorf("create item: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("assignment: bulk create: %w", err)
		}
	}
	return valid, failures, nil
}

// Update applies a partial patch to an assignment.
func Update(gormDB *gorm.DB, id string, opts UpdateOpts) (*models.Assignment, error) {
	a, err := Get(gormDB, id)
	if err != nil {
		return nil, err
	}

	if opts.IsActive != nil {
		a.IsActive = *opts.IsActive
	}
	if opts.Completed != nil {
		a.Completed = *opts.Completed
	}
	if opts.Order != nil {
		a.Order = *opts.Order
	}
	if opts.Notes != nil {
		a.Notes = *opts.Notes
	}

	if err := gormDB.Save(a).Error; err != nil {
		return nil, fmt.Errorf("assignment: update %s: %w", id, err)
	}
	return a, nil
}

// Delete removes an assignment. Unguarded: always permitted.
func Delete(gormDB *gorm.DB, id string) error {
	a, err := Get(gormDB, id)
	if err != nil {
		return err
	}
	if err := gormDB.Delete(a).Error; err != nil {
		return fmt.Errorf("assignment: delete %s: %w", id, err)
	}
	return nil
}

// Complete marks an assignment completed and inactive, then looks up the
// participant's next incomplete assignment: the smallest sort_order
// strictly greater than the completed one's. The lookup is advisory;
// the next assignment is reported but never activated here. Both steps
// run in one transaction.
func Complete(gormDB *gorm.DB, id string) (*CompleteResult, error) {
	var result CompleteResult
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var a models.Assignment
		if err := tx.Where("id = ?", id).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("assignment: %s", id)
			}
			return fmt.Errorf("assignment: get %s for completion: %w", id, err)
		}

		a.Completed = true
		a.IsActive = false
		if err := tx.Save(&a).Error; err != nil {
			return fmt.Errorf("assignment: complete %s: %w", id, err)
		}

		var next models.Assignment
		err := tx.Where("participant_id = ? AND completed = ? AND sort_order > ?",
			a.ParticipantID, false, a.Order).
			Order("sort_order ASC, created_at ASC").First(&next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("assignment: next after %s: %w", id, err)
		}
		result.HasNext = true
		result.NextAssignmentID = next.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

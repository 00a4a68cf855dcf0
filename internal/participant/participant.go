// Package participant provides participant lifecycle operations and the
// resolution of externally visible participant ids to internal ids.
package participant

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/models"
)

// CreateOpts holds parameters for creating a new participant.
type CreateOpts struct {
	ParticipantID string
	Name          string
	Email         string
	IsGuest       bool
	Metadata      map[string]any
}

// UpdateOpts holds a partial patch for a participant; nil fields are
// left unchanged.
type UpdateOpts struct {
	Name     *string
	Email    *string
	IsGuest  *bool
	Metadata map[string]any
}

// List returns participants, newest first, optionally filtered by the
// guest flag.
func List(gormDB *gorm.DB, isGuest *bool) ([]models.Participant, error) {
	q := gormDB.Model(&models.Participant{})
	if isGuest != nil {
		q = q.Where("is_guest = ?", *isGuest)
	}
	var participants []models.Participant
	if err := q.Order("created_at DESC").Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("participant: list: %w", err)
	}
	return participants, nil
}

// Get retrieves a participant by internal id, falling back to the
// external participant_id. Assignments are preloaded in canonical
// sequence order for the detail view.
func Get(gormDB *gorm.DB, ref string) (*models.Participant, error) {
	var p models.Participant
	err := gormDB.Preload("Assignments", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sort_order ASC, created_at ASC")
	}).Where("id = ? OR participant_id = ?", ref, ref).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("participant: %s", ref)
		}
		return nil, fmt.Errorf("participant: get %s: %w", ref, err)
	}
	return &p, nil
}

// Resolve maps a participant reference (internal id or external
// participant_id) to the internal id. Every boundary that accepts a
// participant reference goes through this.
func Resolve(gormDB *gorm.DB, ref string) (string, error) {
	p, err := Get(gormDB, ref)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// Create creates a new participant. The external participant_id must
// be unique.
func Create(gormDB *gorm.DB, opts CreateOpts) (*models.Participant, error) {
	if opts.ParticipantID == "" {
		return nil, apperr.Conflict("participant: participant_id is required")
	}

	var count int64
	if err := gormDB.Model(&models.Participant{}).
		Where("participant_id = ?", opts.ParticipantID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("participant: check duplicate %s: %w", opts.ParticipantID, err)
	}
	if count > 0 {
		return nil, apperr.Conflict("participant: participant ID %q already exists", opts.ParticipantID)
	}

	p := models.Participant{
		ID:            uuid.NewString(),
		ParticipantID: opts.ParticipantID,
		Name:          opts.Name,
		Email:         opts.Email,
		IsGuest:       opts.IsGuest,
		Metadata:      opts.Metadata,
	}
	if err := gormDB.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("participant: create %s: %w", opts.ParticipantID, err)
	}
	return &p, nil
}

// Update applies a partial patch to a participant.
func Update(gormDB *gorm.DB, ref string, opts UpdateOpts) (*models.Participant, error) {
	p, err := Get(gormDB, ref)
	if err != nil {
		return nil, err
	}

	if opts.Name != nil {
		p.Name = *opts.Name
	}
	if opts.Email != nil {
		p.Email = *opts.Email
	}
	if opts.IsGuest != nil {
		p.IsGuest = *opts.IsGuest
	}
	if opts.Metadata != nil {
		p.Metadata = opts.Metadata
	}

	if err := gormDB.Save(p).Error; err != nil {
		return nil, fmt.Errorf("participant: update %s: %w", p.ID, err)
	}
	return p, nil
}

// Delete removes a participant and all of its assignments in one
// transaction. The delete is explicit rather than relying on database
// cascade, so it holds on engines without FK enforcement too.
func Delete(gormDB *gorm.DB, ref string) error {
	p, err := Get(gormDB, ref)
	if err != nil {
		return err
	}
	return gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("participant_id = ?", p.ID).Delete(&models.Assignment{}).Error; err != nil {
			return fmt.Errorf("participant: delete assignments of %s: %w", p.ID, err)
		}
		if err := tx.Delete(p).Error; err != nil {
			return fmt.Errorf("participant: delete %s: %w", p.ID, err)
		}
		return nil
	})
}

// Conversations returns all conversation logs for a participant,
// newest first.
func Conversations(gormDB *gorm.DB, ref string) ([]models.ConversationLog, error) {
	internalID, err := Resolve(gormDB, ref)
	if err != nil {
		return nil, err
	}
	var logs []models.ConversationLog
	if err := gormDB.Where("participant_id = ?", internalID).
		Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("participant: conversations of %s: %w", internalID, err)
	}
	return logs, nil
}

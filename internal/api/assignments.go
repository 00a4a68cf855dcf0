package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/assignment"
)

type createAssignmentRequest struct {
	ParticipantID string `json:"participant_id"`
	AgentID       string `json:"agent_id"`
	AgentConfig   string `json:"agent_config"`
	AgentName     string `json:"agent_name"`
	IsActive      *bool  `json:"is_active"`
	Completed     bool   `json:"completed"`
	Order         int    `json:"order"`
	Notes         string `json:"notes"`
}

type updateAssignmentRequest struct {
	IsActive  *bool   `json:"is_active"`
	Completed *bool   `json:"completed"`
	Order     *int    `json:"order"`
	Notes     *string `json:"notes"`
}

func (r createAssignmentRequest) opts() assignment.CreateOpts {
	return assignment.CreateOpts{
		ParticipantRef: r.ParticipantID,
		AgentID:        r.AgentID,
		AgentConfig:    r.AgentConfig,
		AgentName:      r.AgentName,
		IsActive:       r.IsActive,
		Completed:      r.Completed,
		Order:          r.Order,
		Notes:          r.Notes,
	}
}

func handleListAssignments(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		isActive, err := queryBoolPtr(c, "is_active")
		if err != nil {
			writeError(c, err)
			return
		}
		assignments, err := assignment.List(gormDB, assignment.ListFilters{
			ParticipantRef: c.Query("participant_id"),
			AgentID:        c.Query("agent_id"),
			IsActive:       isActive,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"assignments": assignments})
	}
}

func handleGetAssignment(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := assignment.Get(gormDB, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"assignment": a})
	}
}

func handleCreateAssignment(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}
		a, err := assignment.Create(gormDB, req.opts())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"assignment": a})
	}
}

// handleBulkCreateAssignments creates many assignments with partial
// success: invalid items are reported with their index and cause, valid
// items commit together.
func handleBulkCreateAssignments(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reqs []createAssignmentRequest
		if err := c.ShouldBindJSON(&reqs); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}

		items := make([]assignment.CreateOpts, len(reqs))
		for i, r := range reqs {
			items[i] = r.opts()
		}

		created, failures, err := assignment.CreateBulk(gormDB, items)
		if err != nil {
			writeError(c, err)
			return
		}
		if failures == nil {
			failures = []assignment.BulkFailure{}
		}
		status := http.StatusCreated
		if len(created) == 0 {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"created": created, "failed": failures})
	}
}

func handleUpdateAssignment(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateAssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}
		a, err := assignment.Update(gormDB, c.Param("id"), assignment.UpdateOpts{
			IsActive:  req.IsActive,
			Completed: req.Completed,
			Order:     req.Order,
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"assignment": a})
	}
}

func handleDeleteAssignment(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := assignment.Delete(gormDB, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, messageResponse("Assignment deleted successfully"))
	}
}

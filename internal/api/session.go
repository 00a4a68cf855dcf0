package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/assignment"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/session"
)

type completeAssignmentRequest struct {
	AssignmentID string `json:"assignment_id"`
}

// handleParticipantConfig resolves a participant's operating mode:
// guests get the active-agent list, assigned participants get their
// current assignment's full agent configuration.
func handleParticipantConfig(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := session.ResolveConfig(gormDB, c.Param("participant_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	}
}

// handleCompleteAssignment marks an assignment completed and reports
// whether a next assignment exists in the participant's sequence. The
// participant path segment is retained for API compatibility; completion
// keys off the assignment id in the body.
func handleCompleteAssignment(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req completeAssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}
		if req.AssignmentID == "" {
			writeError(c, apperr.Conflict("assignment_id is required"))
			return
		}

		result, err := assignment.Complete(gormDB, req.AssignmentID)
		if err != nil {
			writeError(c, err)
			return
		}

		resp := gin.H{
			"success":  true,
			"message":  "Assignment completed. No more assignments.",
			"has_next": false,
		}
		if result.HasNext {
			resp["message"] = "Assignment completed"
			resp["has_next"] = true
			resp["next_assignment_id"] = result.NextAssignmentID
		}
		c.JSON(http.StatusOK, resp)
	}
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/conversation"
)

type createConversationRequest struct {
	SessionID        string         `json:"session_id"`
	AgentConfig      string         `json:"agent_config"`
	AgentName        string         `json:"agent_name"`
	Transcript       map[string]any `json:"transcript"`
	Duration         float64        `json:"duration"`
	TurnCount        int            `json:"turn_count"`
	ExperimentID     string         `json:"experiment_id"`
	ParticipantID    string         `json:"participant_id"`
	UserSatisfaction *int           `json:"user_satisfaction"`
	TaskCompleted    *bool          `json:"task_completed"`
	Metadata         map[string]any `json:"extra_metadata"`
}

func handleListConversations(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := conversation.ListFilters{
			AgentID:     c.Query("experiment_id"),
			AgentConfig: c.Query("agent_config"),
		}
		if raw, ok := c.GetQuery("limit"); ok {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > conversation.MaxLimit {
				writeError(c, apperr.Conflict("limit must be between 1 and %d, got %q", conversation.MaxLimit, raw))
				return
			}
			filters.Limit = limit
		}

		logs, err := conversation.List(gormDB, filters)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": logs})
	}
}

func handleGetConversation(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		log, err := conversation.Get(gormDB, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversation": log})
	}
}

func handleCreateConversation(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}

		log, err := conversation.Create(gormDB, conversation.CreateOpts{
			SessionID:      req.SessionID,
			AgentConfig:    req.AgentConfig,
			AgentName:      req.AgentName,
			Transcript:     req.Transcript,
			Duration:       req.Duration,
			TurnCount:      req.TurnCount,
			AgentID:        req.ExperimentID,
			ParticipantRef: req.ParticipantID,
			Satisfaction:   req.UserSatisfaction,
			TaskCompleted:  req.TaskCompleted,
			Metadata:       req.Metadata,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"conversation": log})
	}
}

func handleDeleteConversation(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := conversation.Delete(gormDB, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, messageResponse("Conversation deleted successfully"))
	}
}

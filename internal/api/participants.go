package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/participant"
)

type createParticipantRequest struct {
	ParticipantID string         `json:"participant_id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	IsGuest       bool           `json:"is_guest"`
	Metadata      map[string]any `json:"extra_metadata"`
}

type updateParticipantRequest struct {
	Name     *string        `json:"name"`
	Email    *string        `json:"email"`
	IsGuest  *bool          `json:"is_guest"`
	Metadata map[string]any `json:"extra_metadata"`
}

func handleListParticipants(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		isGuest, err := queryBoolPtr(c, "is_guest")
		if err != nil {
			writeError(c, err)
			return
		}
		participants, err := participant.List(gormDB, isGuest)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"participants": participants})
	}
}

func handleGetParticipant(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := participant.Get(gormDB, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"participant": p})
	}
}

func handleCreateParticipant(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createParticipantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}
		p, err := participant.Create(gormDB, participant.CreateOpts{
			ParticipantID: req.ParticipantID,
			Name:          req.Name,
			Email:         req.Email,
			IsGuest:       req.IsGuest,
			Metadata:      req.Metadata,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"participant": p})
	}
}

func handleUpdateParticipant(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateParticipantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}
		p, err := participant.Update(gormDB, c.Param("id"), participant.UpdateOpts{
			Name:     req.Name,
			Email:    req.Email,
			IsGuest:  req.IsGuest,
			Metadata: req.Metadata,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"participant": p})
	}
}

func handleDeleteParticipant(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := participant.Delete(gormDB, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, messageResponse("Participant deleted successfully"))
	}
}

func handleParticipantConversations(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := participant.Conversations(gormDB, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": logs})
	}
}

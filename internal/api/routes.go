package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up the full REST surface on the gin router.
func registerRoutes(router *gin.Engine, gormDB *gorm.DB) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Realtime Agents Backend API", "status": "running"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	agents := router.Group("/api/agents")
	{
		agents.GET("", handleListAgents(gormDB))
		agents.GET("/by-name/:agent_name", handleGetActiveAgent(gormDB))
		agents.GET("/:id", handleGetAgent(gormDB))
		agents.POST("", handleCreateAgent(gormDB))
		agents.PATCH("/:id", handleUpdateAgent(gormDB))
		agents.DELETE("/:id", handleDeleteAgent(gormDB))
	}

	participants := router.Group("/api/participants")
	{
		participants.GET("", handleListParticipants(gormDB))
		participants.GET("/:id", handleGetParticipant(gormDB))
		participants.GET("/:id/conversations", handleParticipantConversations(gormDB))
		participants.POST("", handleCreateParticipant(gormDB))
		participants.PATCH("/:id", handleUpdateParticipant(gormDB))
		participants.DELETE("/:id", handleDeleteParticipant(gormDB))
	}

	assignments := router.Group("/api/assignments")
	{
		assignments.GET("", handleListAssignments(gormDB))
		assignments.GET("/:id", handleGetAssignment(gormDB))
		assignments.POST("", handleCreateAssignment(gormDB))
		assignments.POST("/bulk", handleBulkCreateAssignments(gormDB))
		assignments.PATCH("/:id", handleUpdateAssignment(gormDB))
		assignments.DELETE("/:id", handleDeleteAssignment(gormDB))
	}

	conversations := router.Group("/api/conversations")
	{
		conversations.GET("", handleListConversations(gormDB))
		conversations.GET("/:id", handleGetConversation(gormDB))
		conversations.POST("", handleCreateConversation(gormDB))
		conversations.DELETE("/:id", handleDeleteConversation(gormDB))
	}

	sess := router.Group("/api/session")
	{
		sess.GET("/participant-config/:participant_id", handleParticipantConfig(gormDB))
		sess.POST("/complete-assignment/:participant_id", handleCompleteAssignment(gormDB))
	}

	users := router.Group("/api/users")
	{
		users.GET("", handleListUsers(gormDB))
		users.GET("/:id", handleGetUser(gormDB))
		users.POST("", handleCreateUser(gormDB))
		users.PATCH("/:id", handleUpdateUser(gormDB))
		users.DELETE("/:id", handleDeleteUser(gormDB))
	}
}

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/agent"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
)

// queryBoolPtr parses an optional boolean query parameter into the
// tri-state form the filter structs use.
func queryBoolPtr(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Conflict("invalid %s value %q", name, raw)
	}
	return &v, nil
}

type createAgentRequest struct {
	Name         string   `json:"name"`
	AgentConfig  string   `json:"agent_config"`
	AgentName    string   `json:"agent_name"`
	SystemPrompt string   `json:"system_prompt"`
	Instructions string   `json:"instructions"`
	Temperature  *float64 `json:"temperature"`
	MaxTokens    *int     `json:"max_tokens"`
	Voice        string   `json:"voice"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	IsActive     bool     `json:"is_active"`
}

type updateAgentRequest struct {
	Name         *string  `json:"name"`
	SystemPrompt *string  `json:"system_prompt"`
	Instructions *string  `json:"instructions"`
	Temperature  *float64 `json:"temperature"`
	MaxTokens    *int     `json:"max_tokens"`
	Voice        *string  `json:"voice"`
	Description  *string  `json:"description"`
	Tags         []string `json:"tags"`
	IsActive     *bool    `json:"is_active"`
	SuccessRate  *float64 `json:"success_rate"`
	AvgDuration  *float64 `json:"avg_duration"`
}

func handleListAgents(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		isActive, err := queryBoolPtr(c, "is_active")
		if err != nil {
			writeError(c, err)
			return
		}
		filters := agent.ListFilters{
			AgentConfig: c.Query("agent_config"),
			AgentName:   c.Query("agent_name"),
			IsActive:    isActive,
		}
		if tags := c.Query("tags"); tags != "" {
			filters.Tags = strings.Split(tags, ",")
		}

		agents, err := agent.List(gormDB, filters)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agents": agents})
	}
}

func handleGetAgent(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := agent.Get(gormDB, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agent": a})
	}
}

// handleGetActiveAgent returns the single active agent for an
// (agent_config, agent_name) pair, 404 if none is active.
func handleGetActiveAgent(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := agent.GetActiveByName(gormDB, c.Query("agent_config"), c.Param("agent_name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agent": a})
	}
}

func handleCreateAgent(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}

		a, err := agent.Create(gormDB, agent.CreateOpts{
			Name:         req.Name,
			AgentConfig:  req.AgentConfig,
			AgentName:    req.AgentName,
			SystemPrompt: req.SystemPrompt,
			Instructions: req.Instructions,
			Temperature:  req.Temperature,
			MaxTokens:    req.MaxTokens,
			Voice:        req.Voice,
			Description:  req.Description,
			Tags:         req.Tags,
			IsActive:     req.IsActive,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"agent": a})
	}
}

func handleUpdateAgent(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.Conflict("invalid request body: %v", err))
			return
		}

		a, err := agent.Update(gormDB, c.Param("id"), agent.UpdateOpts{
			Name:         req.Name,
			SystemPrompt: req.SystemPrompt,
			Instructions: req.Instructions,
			Temperature:  req.Temperature,
			MaxTokens:    req.MaxTokens,
			Voice:        req.Voice,
			Description:  req.Description,
			Tags:         req.Tags,
			IsActive:     req.IsActive,
			SuccessRate:  req.SuccessRate,
			AvgDuration:  req.AvgDuration,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agent": a})
	}
}

func handleDeleteAgent(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := agent.Delete(gormDB, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, messageResponse("Agent deleted successfully"))
	}
}

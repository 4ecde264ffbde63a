package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"github.com/kliring/reinsadmin/internal/workflow/registry"
)

type executeTransitionRequest struct {
	EntityType  string         `json:"entity_type" binding:"required"`
	EntityID    string         `json:"entity_id" binding:"required"`
	TargetState string         `json:"target_state" binding:"required"`
	Reason      string         `json:"reason"`
	Payload     map[string]any `json:"payload"`
}

func (s *Server) ExecuteTransition(c *gin.Context) {
	var req executeTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id, err := parseID(req.EntityID)
	if err != nil {
		AbortWithError(c, newValidationError("entity_id", "invalid_entity_id", "invalid entity id"))
		return
	}

	snap, err := s.workflow.Execute(c.Request.Context(), wfdomain.TransitionRequest{
		EntityType:  entitydomain.Type(req.EntityType),
		EntityID:    id,
		TargetState: req.TargetState,
		Actor:       actorFrom(c),
		Reason:      req.Reason,
		Payload:     req.Payload,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snap.Model})
}

func (s *Server) ListAvailableTransitions(c *gin.Context) {
	entityType := entitydomain.Type(c.Param("type"))
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid entity id"))
		return
	}

	snap, err := s.store.GetSnapshot(c.Request.Context(), entityType, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	targets := registry.TransitionsFrom(entityType, snap.Status)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"entity_type": entityType,
			"entity_id":   snap.ID.String(),
			"status":      snap.Status,
			"transitions": targets,
		},
	})
}

func parseID(raw string) (snowflake.ID, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return snowflake.ID(v), nil
}

package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	notifydomain "github.com/kliring/reinsadmin/internal/notify/domain"
)

func (s *Server) ListNotifications(c *gin.Context) {
	actor := actorFrom(c)
	unreadOnly, _ := strconv.ParseBool(c.Query("unread_only"))

	notifications, err := s.notifySvc.ListForRole(c.Request.Context(), string(actor.Role), unreadOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid notification id"))
		return
	}

	if err := s.notifySvc.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, notifydomain.ErrNotificationNotFound) {
			AbortWithError(c, ErrNotFound)
			return
		}
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

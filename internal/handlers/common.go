package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
	errUnknownProperty = "unknown property"
)

// numberRequest is the body of numeric property writes and actions.
type numberRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

// ValueRequest is an exported model for Swagger docs of {"value": n} payloads.
type ValueRequest struct {
	Value float64 `json:"value" example:"40"`
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// bindNumber parses {"value": n}; it writes the 400 itself on failure.
func bindNumber(c *gin.Context) (float64, bool) {
	var req numberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return 0, false
	}
	return *req.Value, true
}

// respondProperty serves one entry of a property map, or 404.
func respondProperty(c *gin.Context, props map[string]any) {
	name := c.Param("name")
	v, ok := props[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownProperty, "property": name})
		return
	}
	c.JSON(http.StatusOK, gin.H{name: v})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Orchestration status
// @Description  Hosted Things, their current state and the peer links.
// @Tags         system
// @Produce      json
// @Success      200  {object}  service.SystemStatus
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Status.Status(c.Request.Context()))
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Actuator properties
// @Tags         actuator
// @Produce      json
// @Success      200  {object}  models.ActuatorState
// @Router       /api/v1/actuator/properties [get]
func (h *Handler) getActuatorProperties(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Actuator.State())
}

// @Summary      Set actuator speed
// @Tags         actuator
// @Accept       json
// @Produce      json
// @Param        input  body  ValueRequest  true  "Speed in percent"
// @Success      200  {object}  models.ActuatorState
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/actuator/actions/setPumpSpeed [post]
func (h *Handler) setActuatorSpeed(c *gin.Context) {
	value, ok := bindNumber(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.services.Actuator.SetSpeed(c.Request.Context(), roundSpeed(value)))
}

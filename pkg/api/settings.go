package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
	"github.com/nimburion/tutoradmin/pkg/settings"
)

type settingsHandler struct {
	svc *settings.Service
}

func (h *settingsHandler) register(g *gin.RouterGroup) {
	g.GET("", h.get)
	g.PUT("", h.update)
	g.POST("/maintenance/toggle", h.toggleMaintenance)
}

func (h *settingsHandler) get(c *gin.Context) {
	st, err := h.svc.Get(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, st)
}

func (h *settingsHandler) update(c *gin.Context) {
	var in settings.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	st, err := h.svc.Update(c.Request.Context(), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, st)
}

func (h *settingsHandler) toggleMaintenance(c *gin.Context) {
	st, err := h.svc.ToggleMaintenance(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, st)
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
	"github.com/nimburion/tutoradmin/pkg/dashboard"
)

type dashboardHandler struct {
	svc *dashboard.Service
}

func (h *dashboardHandler) register(g *gin.RouterGroup) {
	g.GET("", h.overview)
	g.GET("/activity", h.activity)
}

func (h *dashboardHandler) overview(c *gin.Context) {
	ov, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, ov)
}

// activity handles GET /dashboard/activity?limit=
func (h *dashboardHandler) activity(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		controller.Error(c, err)
		return
	}
	if limit < 0 {
		controller.Error(c, controller.NewValidationError("limit", "must not be negative", limit, nil))
		return
	}
	if limit == 0 {
		limit = dashboard.RecentActivityCount
	}
	controller.Success(c, h.svc.Activity(limit))
}

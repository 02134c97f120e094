package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
	"github.com/nimburion/tutoradmin/pkg/pricing"
)

type planHandler struct {
	svc *pricing.Service
}

func (h *planHandler) register(g *gin.RouterGroup) {
	g.GET("", h.list)
	g.GET("/all", h.all)
	g.GET("/revenue", h.revenue)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.POST("/:id/toggle-status", h.toggleStatus)
	g.DELETE("/:id", h.delete)
}

// list handles GET /plans?page=&page_size=&status=
func (h *planHandler) list(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		controller.Error(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), pricing.ListParams{
		Page:     q.Page,
		PageSize: q.PageSize,
		Status:   c.Query("status"),
	})
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Paginated(c, page)
}

func (h *planHandler) all(c *gin.Context) {
	plans, err := h.svc.All(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, plans)
}

func (h *planHandler) revenue(c *gin.Context) {
	rev, err := h.svc.Revenue(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, rev)
}

func (h *planHandler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, p)
}

func (h *planHandler) create(c *gin.Context) {
	var in pricing.CreateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	p, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Created(c, p)
}

func (h *planHandler) update(c *gin.Context) {
	var in pricing.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, p)
}

func (h *planHandler) toggleStatus(c *gin.Context) {
	p, err := h.svc.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, p)
}

func (h *planHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		controller.Error(c, err)
		return
	}
	controller.NoContent(c)
}

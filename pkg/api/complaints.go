package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/complaint"
	"github.com/nimburion/tutoradmin/pkg/controller"
)

type complaintHandler struct {
	svc *complaint.Service
}

func (h *complaintHandler) register(g *gin.RouterGroup) {
	g.GET("", h.list)
	g.GET("/stats", h.stats)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.PATCH("/:id/status", h.updateStatus)
	g.DELETE("/:id", h.delete)
}

// list handles GET /complaints?page=&page_size=&search=&status=
func (h *complaintHandler) list(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		controller.Error(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), complaint.ListParams{
		Page:     q.Page,
		PageSize: q.PageSize,
		Search:   q.Search,
		Status:   c.Query("status"),
	})
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Paginated(c, page)
}

func (h *complaintHandler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, stats)
}

func (h *complaintHandler) get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, rec)
}

func (h *complaintHandler) create(c *gin.Context) {
	var in complaint.CreateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Created(c, rec)
}

func (h *complaintHandler) update(c *gin.Context) {
	var in complaint.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, rec)
}

type statusRequest struct {
	Status complaint.Status `json:"status"`
}

func (h *complaintHandler) updateStatus(c *gin.Context) {
	var in statusRequest
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	rec, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, rec)
}

func (h *complaintHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		controller.Error(c, err)
		return
	}
	controller.NoContent(c)
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
	"github.com/nimburion/tutoradmin/pkg/user"
)

type userHandler struct {
	svc *user.Service
}

func (h *userHandler) register(g *gin.RouterGroup) {
	g.GET("", h.list)
	g.GET("/counts", h.counts)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.GET("/:id/children", h.children)
	g.PATCH("/:id", h.update)
	g.POST("/:id/toggle-status", h.toggleStatus)
	g.DELETE("/:id", h.delete)
}

// list handles GET /users?page=&page_size=&search= and returns parent
// accounts with their learners nested.
func (h *userHandler) list(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		controller.Error(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), user.ListParams{
		Page:     q.Page,
		PageSize: q.PageSize,
		Search:   q.Search,
	})
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Paginated(c, page)
}

func (h *userHandler) counts(c *gin.Context) {
	counts, err := h.svc.Counts(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, counts)
}

func (h *userHandler) get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, u)
}

func (h *userHandler) children(c *gin.Context) {
	kids, err := h.svc.Children(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, kids)
}

func (h *userHandler) create(c *gin.Context) {
	var in user.CreateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	u, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Created(c, u)
}

func (h *userHandler) update(c *gin.Context) {
	var in user.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	u, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, u)
}

func (h *userHandler) toggleStatus(c *gin.Context) {
	u, err := h.svc.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, u)
}

// deleteResult lists every account a delete removed, the parent and its learners.
type deleteResult struct {
	Deleted []string `json:"deleted"`
}

func (h *userHandler) delete(c *gin.Context) {
	removed, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	ids := make([]string, 0, len(removed))
	for _, u := range removed {
		ids = append(ids, u.ID)
	}
	controller.Success(c, deleteResult{Deleted: ids})
}

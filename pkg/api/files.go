package api

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
	"github.com/nimburion/tutoradmin/pkg/knowledgebase"
)

type fileHandler struct {
	svc *knowledgebase.Service
}

func (h *fileHandler) register(g *gin.RouterGroup) {
	g.GET("", h.list)
	g.GET("/stats", h.stats)
	g.POST("", h.upload)
	g.GET("/:id", h.get)
	g.GET("/:id/download", h.download)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

// list handles GET /knowledge-base/files?page=&page_size=&search=&file_type=&level=&subject=
func (h *fileHandler) list(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		controller.Error(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), knowledgebase.ListParams{
		Page:     q.Page,
		PageSize: q.PageSize,
		Search:   q.Search,
		FileType: c.Query("file_type"),
		Level:    c.Query("level"),
		Subject:  c.Query("subject"),
	})
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Paginated(c, page)
}

func (h *fileHandler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, stats)
}

func (h *fileHandler) get(c *gin.Context) {
	f, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, f)
}

// upload accepts either a multipart form with a "file" part and metadata
// fields, or a JSON body whose content is base64 encoded.
func (h *fileHandler) upload(c *gin.Context) {
	var (
		in  knowledgebase.UploadInput
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = uploadFromForm(c)
	} else {
		err = bindJSON(c, &in)
	}
	if err != nil {
		controller.Error(c, err)
		return
	}

	f, err := h.svc.Upload(c.Request.Context(), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Created(c, f)
}

func uploadFromForm(c *gin.Context) (knowledgebase.UploadInput, error) {
	in := knowledgebase.UploadInput{
		FileName:    c.PostForm("file_name"),
		FileType:    knowledgebase.FileType(c.PostForm("file_type")),
		Level:       c.PostForm("level"),
		Subject:     c.PostForm("subject"),
		Description: c.PostForm("description"),
	}
	header, err := c.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return in, controller.NewValidationError("file", "is required", nil, err)
		}
		return in, wrapBodyError(err)
	}
	part, err := header.Open()
	if err != nil {
		return in, wrapBodyError(err)
	}
	defer part.Close()
	if in.Content, err = io.ReadAll(part); err != nil {
		return in, wrapBodyError(err)
	}
	if strings.TrimSpace(in.FileName) == "" {
		in.FileName = header.Filename
	}
	return in, nil
}

func (h *fileHandler) update(c *gin.Context) {
	var in knowledgebase.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	f, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, f)
}

func (h *fileHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		controller.Error(c, err)
		return
	}
	controller.NoContent(c)
}

func (h *fileHandler) download(c *gin.Context) {
	d, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
	c.Data(http.StatusOK, d.ContentType, d.Content)
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
	"github.com/nimburion/tutoradmin/pkg/llmconfig"
)

type llmHandler struct {
	svc *llmconfig.Service
}

func (h *llmHandler) register(g *gin.RouterGroup) {
	g.GET("/config", h.get)
	g.PUT("/config", h.update)
	g.POST("/config/reset", h.reset)
	g.GET("/models", h.models)
}

func (h *llmHandler) get(c *gin.Context) {
	cfg, err := h.svc.Get(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, cfg)
}

func (h *llmHandler) models(c *gin.Context) {
	models, err := h.svc.Models(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, models)
}

func (h *llmHandler) update(c *gin.Context) {
	var in llmconfig.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		controller.Error(c, err)
		return
	}
	cfg, err := h.svc.Update(c.Request.Context(), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, cfg)
}

func (h *llmHandler) reset(c *gin.Context) {
	cfg, err := h.svc.Reset(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, cfg)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/torquelab/garage-erp/internal/shop/service"
)

// MechanicHandler 技师处理器
type MechanicHandler struct {
	svc *service.MechanicService
}

func NewMechanicHandler(svc *service.MechanicService) *MechanicHandler {
	return &MechanicHandler{svc: svc}
}

func (h *MechanicHandler) List(c *gin.Context) {
	mechanics, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, mechanics)
}

func (h *MechanicHandler) Create(c *gin.Context) {
	var req service.CreateMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	mechanic, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Created(c, mechanic)
}

func (h *MechanicHandler) Update(c *gin.Context) {
	var req service.UpdateMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	mechanic, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, mechanic)
}

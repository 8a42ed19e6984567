package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/torquelab/garage-erp/internal/shop/repository"
	"github.com/torquelab/garage-erp/internal/shop/service"
)

// PartHandler 配件目录处理器
type PartHandler struct {
	svc *service.PartService
}

func NewPartHandler(svc *service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

func (h *PartHandler) List(c *gin.Context) {
	page, size := GetPagination(c)
	params := repository.PartListParams{
		Category: c.Query("category"),
		Keyword:  c.Query("keyword"),
		LowStock: c.Query("low_stock") == "true",
		Page:     page,
		Size:     size,
	}
	parts, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": parts, "total": total, "page": page, "size": size})
}

func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, part)
}

func (h *PartHandler) Create(c *gin.Context) {
	var req service.CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	part, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, part)
}

func (h *PartHandler) Update(c *gin.Context) {
	var req service.UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	part, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, part)
}

// Adjust 手工库存调整
func (h *PartHandler) Adjust(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	part, err := h.svc.Adjust(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, part)
}

func (h *PartHandler) Alerts(c *gin.Context) {
	parts, err := h.svc.GetAlerts(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, parts)
}

func (h *PartHandler) Movements(c *gin.Context) {
	page, size := GetPagination(c)
	movements, total, err := h.svc.ListMovements(c.Request.Context(), c.Query("part_id"), page, size)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": movements, "total": total, "page": page, "size": size})
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/torquelab/garage-erp/internal/shop/service"
)

// CustomerHandler 客户处理器
type CustomerHandler struct {
	svc *service.CustomerService
}

func NewCustomerHandler(svc *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

func (h *CustomerHandler) List(c *gin.Context) {
	page, size := GetPagination(c)
	customers, total, err := h.svc.List(c.Request.Context(), c.Query("keyword"), page, size)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": customers, "total": total, "page": page, "size": size})
}

func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, customer)
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	customer, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Created(c, customer)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	var req service.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	customer, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, customer)
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		InternalError(c, err.Error())
		return
	}
	NoContent(c)
}

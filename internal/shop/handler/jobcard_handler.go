package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/torquelab/garage-erp/internal/shop/repository"
	"github.com/torquelab/garage-erp/internal/shop/service"
)

// JobCardHandler 维修工单处理器
type JobCardHandler struct {
	svc     *service.JobCardService
	billing *service.BillingService
}

func NewJobCardHandler(svc *service.JobCardService, billing *service.BillingService) *JobCardHandler {
	return &JobCardHandler{svc: svc, billing: billing}
}

func (h *JobCardHandler) List(c *gin.Context) {
	page, size := GetPagination(c)
	params := repository.JobCardListParams{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		MechanicID: c.Query("mechanic_id"),
		Keyword:    c.Query("keyword"),
		Page:       page,
		Size:       size,
	}
	cards, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": cards, "total": total, "page": page, "size": size})
}

func (h *JobCardHandler) Get(c *gin.Context) {
	jc, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, jc)
}

func (h *JobCardHandler) Create(c *gin.Context) {
	var req service.CreateJobCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	jc, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, jc)
}

// Update 更新非库存字段。A parts_used field in this body is rejected
// outright: part reservations only move through the parts endpoint.
func (h *JobCardHandler) Update(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if _, ok := raw["parts_used"]; ok {
		BadRequest(c, "parts_used cannot be changed here, use PUT /job-cards/:id/parts")
		return
	}

	var req service.UpdateJobCardRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		BadRequest(c, err.Error())
		return
	}
	jc, err := h.svc.GeneralUpdate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, jc)
}

// UpdateParts 调整工单配件（add / update / replace）
func (h *JobCardHandler) UpdateParts(c *gin.Context) {
	var req service.UpdateJobCardPartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	jc, err := h.svc.UpdateParts(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, jc)
}

// Delete 删单，幂等：重复删除同一工单返回成功
func (h *JobCardHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		ServiceError(c, err)
		return
	}
	NoContent(c)
}

// Invoice 结算单只读视图
func (h *JobCardHandler) Invoice(c *gin.Context) {
	inv, err := h.billing.InvoiceForJobCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, inv)
}

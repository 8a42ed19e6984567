package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/torquelab/garage-erp/internal/shop/service"
)

// Handlers 处理器集合
type Handlers struct {
	JobCard  *JobCardHandler
	Part     *PartHandler
	Customer *CustomerHandler
	Mechanic *MechanicHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		JobCard:  NewJobCardHandler(services.JobCard, services.Billing),
		Part:     NewPartHandler(services.Part),
		Customer: NewCustomerHandler(services.Customer),
		Mechanic: NewMechanicHandler(services.Mechanic),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

func NoContent(c *gin.Context) {
	c.Status(204)
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError maps the service error taxonomy onto the response envelope.
// 409s carry enough detail for the caller to tell "fix your input"
// (insufficient stock) from "retry the request" (conflict).
func ServiceError(c *gin.Context, err error) {
	var insufficient *service.InsufficientStockError
	var partMissing *service.PartNotFoundError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &insufficient):
		c.JSON(409, Response{Code: 40900, Message: insufficient.Error(), Data: insufficient})
	case errors.Is(err, service.ErrConcurrencyConflict):
		Error(c, 40901, err.Error())
	case errors.As(err, &partMissing):
		Error(c, 40402, err.Error())
	case errors.Is(err, service.ErrJobCardNotFound):
		Error(c, 40401, err.Error())
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrMechanicNotFound):
		NotFound(c, err.Error())
	case errors.As(err, &invalid):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, size int) {
	page = 1
	size = 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			size = v
		}
	}
	return page, size
}

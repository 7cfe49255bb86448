package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/nimo-hq/internal/ir/service"
	"github.com/bitfantasy/nimo-hq/internal/shared/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	Requisition  *RequisitionHandler
	Intervention *InterventionHandler
	SSE          *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub, exportMaxRows int, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Requisition:  NewRequisitionHandler(svc.Requisition, exportMaxRows, logger),
		Intervention: NewInterventionHandler(svc.Requisition),
		SSE:          NewSSEHandler(hub),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// 业务错误码，HTTP状态码为 code/100
const (
	CodeBadRequest         = 40000
	CodeValidation         = 40001
	CodeInvalidQuantity    = 40002
	CodeUnauthorized       = 40100
	CodeForbidden          = 40300
	CodeNotFound           = 40400
	CodeInvalidTransition  = 40901
	CodeConcurrentModified = 40902
	CodeSequenceExhausted  = 42201
	CodeInternal           = 50000
	CodeStorageUnavailable = 50301
)

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, CodeBadRequest, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, CodeInternal, message)
}

// ServiceError 把服务层错误映射为响应码
func ServiceError(c *gin.Context, err error) {
	var qe *service.QuantityError
	switch {
	case errors.As(err, &qe):
		c.JSON(400, Response{
			Code:    CodeInvalidQuantity,
			Message: err.Error(),
			Data: gin.H{
				"item_id":   qe.ItemID,
				"requested": qe.Requested,
				"approved":  qe.Approved,
			},
		})
	case errors.Is(err, service.ErrValidation):
		Error(c, CodeValidation, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Error(c, CodeForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		Error(c, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		Error(c, CodeInvalidTransition, err.Error())
	case errors.Is(err, service.ErrConcurrentModification):
		Error(c, CodeConcurrentModified, err.Error())
	case errors.Is(err, service.ErrSequenceExhausted):
		Error(c, CodeSequenceExhausted, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable), errors.Is(err, service.ErrRepositoryNotConfigured):
		Error(c, CodeStorageUnavailable, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetActor 从JWT上下文组装操作人
func GetActor(c *gin.Context) service.Actor {
	return service.Actor{
		ID:       GetUserID(c),
		Role:     service.ResolveRole(c.GetStringSlice("roles")),
		BranchID: c.GetString("branch_id"),
		SourceIP: c.ClientIP(),
	}
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func newPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      int(total),
		TotalPages: totalPages,
	}
}

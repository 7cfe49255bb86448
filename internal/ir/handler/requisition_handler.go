package handler

import (
	"net/http"

	"github.com/bitfantasy/nimo-hq/internal/ir/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequisitionHandler 请购单接口
type RequisitionHandler struct {
	svc           *service.RequisitionService
	exportMaxRows int
	logger        *zap.Logger
}

func NewRequisitionHandler(svc *service.RequisitionService, exportMaxRows int, logger *zap.Logger) *RequisitionHandler {
	return &RequisitionHandler{svc: svc, exportMaxRows: exportMaxRows, logger: logger}
}

// filterFor 门店角色只能看到本门店的请购单
func filterFor(c *gin.Context, actor service.Actor) service.RequisitionFilter {
	filter := service.RequisitionFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		BranchID: c.Query("branch_id"),
	}
	if !actor.Role.IsHQ() {
		filter.BranchID = actor.BranchID
	}
	return filter
}

// List GET /requisitions
func (h *RequisitionHandler) List(c *gin.Context) {
	actor := GetActor(c)
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.ListRequisitions(c.Request.Context(), filterFor(c, actor), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ListResponse{
		Items:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// Get GET /requisitions/:id
func (h *RequisitionHandler) Get(c *gin.Context) {
	req, err := h.svc.GetRequisition(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	if !GetActor(c).CanSee(req) {
		NotFound(c, "requisition not found")
		return
	}
	Success(c, req)
}

// Create POST /requisitions
func (h *RequisitionHandler) Create(c *gin.Context) {
	var req service.CreateRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	created, err := h.svc.CreateRequisition(c.Request.Context(), &req, GetActor(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, created)
}

// Transition POST /requisitions/:id/transitions/:action
func (h *RequisitionHandler) Transition(c *gin.Context) {
	action, err := service.ParseAction(c.Param("action"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	var payload service.TransitionPayload
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}

	updated, err := h.svc.Transition(c.Request.Context(), c.Param("id"), action, payload, GetActor(c))
	if err != nil {
		if service.IsRetryable(err) {
			h.logger.Warn("Requisition transition lost a concurrent update",
				zap.String("id", c.Param("id")),
				zap.String("action", string(action)),
			)
		}
		ServiceError(c, err)
		return
	}
	Success(c, updated)
}

// Export GET /requisitions/export
func (h *RequisitionHandler) Export(c *gin.Context) {
	actor := GetActor(c)
	f, filename, err := h.svc.ExportRequisitions(c.Request.Context(), filterFor(c, actor), h.exportMaxRows)
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Failed to write export", zap.Error(err))
	}
}

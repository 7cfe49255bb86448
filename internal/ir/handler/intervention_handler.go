package handler

import (
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/service"
	"github.com/gin-gonic/gin"
)

// InterventionHandler 总部干预记录查询
type InterventionHandler struct {
	svc *service.RequisitionService
}

func NewInterventionHandler(svc *service.RequisitionService) *InterventionHandler {
	return &InterventionHandler{svc: svc}
}

// parseDay 接受 2006-01-02 或 RFC3339；endOfDay 时日期取当天结束
func parseDay(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// List GET /hq/interventions?branch_id=&from=&to=
func (h *InterventionHandler) List(c *gin.Context) {
	from, err := parseDay(c.Query("from"), false)
	if err != nil {
		BadRequest(c, "invalid from: "+err.Error())
		return
	}
	to, err := parseDay(c.Query("to"), true)
	if err != nil {
		BadRequest(c, "invalid to: "+err.Error())
		return
	}

	logs, err := h.svc.ListInterventions(c.Request.Context(), c.Query("branch_id"), from, to)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": logs, "total": len(logs)})
}

package service

import (
	"fmt"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
)

// Authorize 校验操作人能否对该请购单执行动作。
// 看不到的请购单按不存在处理，与详情接口一致。
func Authorize(req *entity.Requisition, action Action, actor Actor) error {
	if !actor.CanSee(req) {
		return fmt.Errorf("requisition %s: %w", req.ID, ErrNotFound)
	}
	if actor.Role.IsHQ() {
		return nil
	}

	allowed := false
	switch action {
	case ActionSubmit, ActionCancel:
		allowed = actor.BranchID == req.RequestingBranchID
	case ActionProcess:
		allowed = actor.Role == RoleWarehouse
	case ActionReady, ActionShip, ActionDeliver, ActionComplete:
		allowed = actor.Role == RoleWarehouse || actor.fulfils(req)
	}
	if !allowed {
		return fmt.Errorf("%w: role %s of branch %s cannot %s requisition %s",
			ErrForbidden, actor.Role, actor.BranchID, action, req.IRNumber)
	}
	return nil
}

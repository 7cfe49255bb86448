package service

import "github.com/bitfantasy/nimo-hq/internal/ir/entity"

// ActorRole 操作人角色
type ActorRole string

const (
	RoleBranchStaff   ActorRole = "branch_staff"
	RoleBranchManager ActorRole = "branch_manager"
	RoleWarehouse     ActorRole = "warehouse"
	RoleHQStaff       ActorRole = "hq_staff"
	RoleHQAdmin       ActorRole = "hq_admin"
)

// rolePrecedence 多角色时取排在前面的
var rolePrecedence = []ActorRole{RoleHQAdmin, RoleHQStaff, RoleWarehouse, RoleBranchManager, RoleBranchStaff}

func (r ActorRole) Valid() bool {
	switch r {
	case RoleBranchStaff, RoleBranchManager, RoleWarehouse, RoleHQStaff, RoleHQAdmin:
		return true
	}
	return false
}

// IsHQ 总部角色
func (r ActorRole) IsHQ() bool {
	switch r {
	case RoleHQStaff, RoleHQAdmin:
		return true
	}
	return false
}

// ResolveRole 从JWT中的角色列表解析出生效角色，无法识别时按门店员工处理
func ResolveRole(roles []string) ActorRole {
	have := make(map[ActorRole]bool, len(roles))
	for _, r := range roles {
		have[ActorRole(r)] = true
	}
	for _, r := range rolePrecedence {
		if have[r] {
			return r
		}
	}
	return RoleBranchStaff
}

// Actor 操作人
type Actor struct {
	ID       string
	Role     ActorRole
	BranchID string
	SourceIP string
}

// IntervenesIn 总部角色操作非本门店数据即为总部干预
func (a Actor) IntervenesIn(branchID string) bool {
	return a.Role.IsHQ() && a.BranchID != branchID
}

// CanSee 总部与仓库可见全部请购单，门店只能看到自己发起或负责履约的
func (a Actor) CanSee(req *entity.Requisition) bool {
	if a.Role.IsHQ() || a.Role == RoleWarehouse {
		return true
	}
	return a.BranchID != "" && (a.BranchID == req.RequestingBranchID || a.fulfils(req))
}

func (a Actor) fulfils(req *entity.Requisition) bool {
	return req.FulfillingBranchID != nil && *req.FulfillingBranchID == a.BranchID
}

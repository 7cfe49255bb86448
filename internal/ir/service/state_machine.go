package service

import (
	"strings"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
)

// Action 请购单流转动作
type Action string

const (
	ActionSubmit           Action = "submit"
	ActionReview           Action = "review"
	ActionApprove          Action = "approve"
	ActionPartiallyApprove Action = "partially_approve"
	ActionReject           Action = "reject"
	ActionProcess          Action = "process"
	ActionReady            Action = "ready"
	ActionShip             Action = "ship"
	ActionDeliver          Action = "deliver"
	ActionComplete         Action = "complete"
	ActionCancel           Action = "cancel"
)

// Actions 全部动作
var Actions = []Action{
	ActionSubmit, ActionReview, ActionApprove, ActionPartiallyApprove, ActionReject,
	ActionProcess, ActionReady, ActionShip, ActionDeliver, ActionComplete, ActionCancel,
}

// ParseAction 解析动作名
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", validationError("unknown action %q", s)
}

// TransitionPayload 流转参数
type TransitionPayload struct {
	Items              []ItemDecision `json:"items"`
	Reason             string         `json:"reason"`
	FulfillingBranchID *string        `json:"fulfilling_branch_id"`
	PurchaseOrderID    *string        `json:"purchase_order_id"`
}

// Allowed 返回该动作允许的起始状态
func Allowed(action Action) []entity.RequisitionStatus {
	switch action {
	case ActionSubmit:
		return []entity.RequisitionStatus{entity.StatusDraft}
	case ActionReview:
		return []entity.RequisitionStatus{entity.StatusSubmitted}
	case ActionApprove, ActionPartiallyApprove, ActionReject:
		return []entity.RequisitionStatus{entity.StatusSubmitted, entity.StatusUnderReview}
	case ActionProcess:
		return []entity.RequisitionStatus{entity.StatusApproved, entity.StatusPartiallyApproved}
	case ActionReady:
		return []entity.RequisitionStatus{entity.StatusProcessing}
	case ActionShip:
		return []entity.RequisitionStatus{entity.StatusProcessing, entity.StatusReadyToShip}
	case ActionDeliver:
		return []entity.RequisitionStatus{entity.StatusInTransit}
	case ActionComplete:
		return []entity.RequisitionStatus{entity.StatusDelivered}
	case ActionCancel:
		var from []entity.RequisitionStatus
		for _, s := range entity.RequisitionStatuses {
			if !s.IsTerminal() {
				from = append(from, s)
			}
		}
		return from
	}
	return nil
}

// CanApply 当前状态是否允许该动作
func CanApply(status entity.RequisitionStatus, action Action) bool {
	for _, s := range Allowed(action) {
		if s == status {
			return true
		}
	}
	return false
}

// Apply 对请购单副本执行一次流转，失败时原单不受影响
func Apply(current *entity.Requisition, action Action, payload TransitionPayload, actor Actor, now time.Time) (*entity.Requisition, error) {
	if !CanApply(current.Status, action) {
		return nil, &TransitionError{From: current.Status, Action: action}
	}

	next := cloneRequisition(current)
	actorID := actor.ID

	switch action {
	case ActionSubmit:
		next.Status = entity.StatusSubmitted

	case ActionReview:
		next.Status = entity.StatusUnderReview
		next.ReviewedBy = &actorID
		next.ReviewedAt = &now

	case ActionApprove, ActionPartiallyApprove:
		if action == ActionPartiallyApprove && len(payload.Items) == 0 {
			return nil, validationError("partially_approve requires per-item approved quantities")
		}
		decisions, err := ValidateApprovals(next.Items, payload.Items)
		if err != nil {
			return nil, err
		}
		if err := assignFulfillingBranch(next, payload.FulfillingBranchID); err != nil {
			return nil, err
		}

		partial := false
		anyApproved := false
		for i := range next.Items {
			item := &next.Items[i]
			qty := item.RequestedQuantity
			reason := ""
			if d, ok := decisions[item.ID]; ok {
				qty = d.ApprovedQuantity.Decimal
				reason = d.RejectionReason
			}
			applyApproval(item, qty, reason)
			if item.Status != entity.ItemStatusApproved {
				partial = true
			}
			if !qty.IsZero() {
				anyApproved = true
			}
		}
		if !anyApproved {
			return nil, validationError("no item approved; use reject instead")
		}

		next.Status = entity.StatusApproved
		if partial || action == ActionPartiallyApprove {
			next.Status = entity.StatusPartiallyApproved
		}
		if next.ReviewedBy == nil {
			next.ReviewedBy = &actorID
			next.ReviewedAt = &now
		}
		next.ApprovedBy = &actorID
		next.ApprovedAt = &now

	case ActionReject:
		reason := strings.TrimSpace(payload.Reason)
		if reason == "" {
			return nil, validationError("rejection reason is required")
		}
		itemReasons := make(map[string]string, len(payload.Items))
		for _, d := range payload.Items {
			itemReasons[d.ItemID] = d.RejectionReason
		}
		for i := range next.Items {
			item := &next.Items[i]
			item.Status = entity.ItemStatusRejected
			item.RejectionReason = reason
			if r := strings.TrimSpace(itemReasons[item.ID]); r != "" {
				item.RejectionReason = r
			}
		}
		next.Status = entity.StatusRejected
		next.RejectionReason = reason
		if next.ReviewedBy == nil {
			next.ReviewedBy = &actorID
			next.ReviewedAt = &now
		}

	case ActionProcess:
		if err := assignFulfillingBranch(next, payload.FulfillingBranchID); err != nil {
			return nil, err
		}
		if payload.PurchaseOrderID != nil && *payload.PurchaseOrderID != "" {
			po := *payload.PurchaseOrderID
			next.PurchaseOrderID = &po
		}
		next.Status = entity.StatusProcessing

	case ActionReady:
		next.Status = entity.StatusReadyToShip

	case ActionShip:
		next.Status = entity.StatusInTransit

	case ActionDeliver:
		next.Status = entity.StatusDelivered
		next.ActualDeliveryDate = &now

	case ActionComplete:
		fulfill(next.Items)
		next.Status = entity.StatusCompleted
		next.CompletedAt = &now

	case ActionCancel:
		next.Status = entity.StatusCancelled
		next.CancelReason = strings.TrimSpace(payload.Reason)
		next.CancelledAt = &now

	default:
		return nil, validationError("unknown action %q", action)
	}

	Recompute(next)
	return next, nil
}

// assignFulfillingBranch 履约门店一旦设置不可更改
func assignFulfillingBranch(req *entity.Requisition, branchID *string) error {
	if branchID == nil || *branchID == "" {
		return nil
	}
	if req.FulfillingBranchID != nil {
		if *req.FulfillingBranchID == *branchID {
			return nil
		}
		return validationError("fulfilling branch already set to %s", *req.FulfillingBranchID)
	}
	id := *branchID
	req.FulfillingBranchID = &id
	return nil
}

func cloneRequisition(r *entity.Requisition) *entity.Requisition {
	c := *r
	c.Items = make([]entity.RequisitionItem, len(r.Items))
	copy(c.Items, r.Items)
	return &c
}

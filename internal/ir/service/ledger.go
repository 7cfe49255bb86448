package service

import (
	"fmt"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"github.com/shopspring/decimal"
)

// ItemDecision 单个行项的审批决定，审批时 approved_quantity 必填（可为0）
type ItemDecision struct {
	ItemID           string              `json:"item_id" binding:"required"`
	ApprovedQuantity decimal.NullDecimal `json:"approved_quantity"`
	RejectionReason  string              `json:"rejection_reason"`
}

// ValidateApprovals 校验一批审批数量，任一越界则整批失败。
// 返回按行项ID索引的决定。
func ValidateApprovals(items []entity.RequisitionItem, decisions []ItemDecision) (map[string]ItemDecision, error) {
	byID := make(map[string]*entity.RequisitionItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	result := make(map[string]ItemDecision, len(decisions))
	for _, d := range decisions {
		item, ok := byID[d.ItemID]
		if !ok {
			return nil, validationError("item %s does not belong to this requisition", d.ItemID)
		}
		if _, dup := result[d.ItemID]; dup {
			return nil, validationError("item %s appears more than once", d.ItemID)
		}
		if !d.ApprovedQuantity.Valid {
			return nil, validationError("item %s: approved_quantity is required", d.ItemID)
		}
		approved := d.ApprovedQuantity.Decimal
		if approved.IsNegative() || approved.GreaterThan(item.RequestedQuantity) {
			return nil, &QuantityError{
				ItemID:    d.ItemID,
				Requested: item.RequestedQuantity,
				Approved:  approved,
			}
		}
		result[d.ItemID] = d
	}
	return result, nil
}

// applyApproval 写入审批数量并据此决定行项状态
func applyApproval(item *entity.RequisitionItem, qty decimal.Decimal, reason string) {
	item.ApprovedQuantity = decimal.NewNullDecimal(qty)
	switch {
	case qty.Equal(item.RequestedQuantity):
		item.Status = entity.ItemStatusApproved
		item.RejectionReason = ""
	case qty.IsZero():
		item.Status = entity.ItemStatusRejected
		if reason == "" {
			reason = "not approved"
		}
		item.RejectionReason = reason
	default:
		item.Status = entity.ItemStatusPartiallyApproved
		item.RejectionReason = reason
	}
}

// fulfill 完成时把审批数量记为已交付数量
func fulfill(items []entity.RequisitionItem) {
	for i := range items {
		item := &items[i]
		if item.Status != entity.ItemStatusApproved && item.Status != entity.ItemStatusPartiallyApproved {
			continue
		}
		approved := item.ApprovedQuantity.Decimal
		if approved.GreaterThan(item.FulfilledQuantity) {
			item.FulfilledQuantity = approved
		}
		item.Status = entity.ItemStatusFulfilled
	}
}

// Recompute 由行项重新计算汇总字段，这是汇总字段唯一的写入点
func Recompute(req *entity.Requisition) {
	count := 0
	qty := decimal.Zero
	value := decimal.Zero
	for i := range req.Items {
		item := &req.Items[i]
		item.EstimatedTotalCost = item.EstimatedUnitCost.Mul(item.RequestedQuantity).Round(2)
		count++
		qty = qty.Add(item.RequestedQuantity)
		value = value.Add(item.EstimatedTotalCost)
	}
	req.TotalItems = count
	req.TotalQuantity = qty
	req.EstimatedValue = value
}

// CheckInvariants 校验数量和汇总不变量
func CheckInvariants(req *entity.Requisition) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("requisition %s has no items", req.IRNumber)
	}
	qty := decimal.Zero
	value := decimal.Zero
	for _, item := range req.Items {
		qty = qty.Add(item.RequestedQuantity)
		value = value.Add(item.EstimatedTotalCost)
		if item.FulfilledQuantity.IsNegative() {
			return fmt.Errorf("item %s: negative fulfilled quantity", item.ID)
		}
		if !item.ApprovedQuantity.Valid {
			if !item.FulfilledQuantity.IsZero() {
				return fmt.Errorf("item %s: fulfilled without approval", item.ID)
			}
			continue
		}
		approved := item.ApprovedQuantity.Decimal
		if approved.IsNegative() || approved.GreaterThan(item.RequestedQuantity) {
			return fmt.Errorf("item %s: approved %s out of [0, %s]", item.ID, approved, item.RequestedQuantity)
		}
		if item.FulfilledQuantity.GreaterThan(approved) {
			return fmt.Errorf("item %s: fulfilled %s exceeds approved %s", item.ID, item.FulfilledQuantity, approved)
		}
	}
	if req.TotalItems != len(req.Items) || !req.TotalQuantity.Equal(qty) || !req.EstimatedValue.Equal(value) {
		return fmt.Errorf("requisition %s: aggregates out of sync", req.IRNumber)
	}
	return nil
}

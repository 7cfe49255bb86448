package entity

// RequisitionStatus 请购单状态
type RequisitionStatus string

const (
	StatusDraft             RequisitionStatus = "draft"
	StatusSubmitted         RequisitionStatus = "submitted"
	StatusUnderReview       RequisitionStatus = "under_review"
	StatusApproved          RequisitionStatus = "approved"
	StatusPartiallyApproved RequisitionStatus = "partially_approved"
	StatusRejected          RequisitionStatus = "rejected"
	StatusProcessing        RequisitionStatus = "processing"
	StatusReadyToShip       RequisitionStatus = "ready_to_ship"
	StatusInTransit         RequisitionStatus = "in_transit"
	StatusDelivered         RequisitionStatus = "delivered"
	StatusCompleted         RequisitionStatus = "completed"
	StatusCancelled         RequisitionStatus = "cancelled"
)

// RequisitionStatuses 全部状态，按流程顺序
var RequisitionStatuses = []RequisitionStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusPartiallyApproved,
	StatusRejected,
	StatusProcessing,
	StatusReadyToShip,
	StatusInTransit,
	StatusDelivered,
	StatusCompleted,
	StatusCancelled,
}

func (s RequisitionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusPartiallyApproved,
		StatusRejected, StatusProcessing, StatusReadyToShip, StatusInTransit, StatusDelivered,
		StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal 终态不允许再流转
func (s RequisitionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ItemStatus 请购行项状态
type ItemStatus string

const (
	ItemStatusPending           ItemStatus = "pending"
	ItemStatusApproved          ItemStatus = "approved"
	ItemStatusPartiallyApproved ItemStatus = "partially_approved"
	ItemStatusRejected          ItemStatus = "rejected"
	ItemStatusFulfilled         ItemStatus = "fulfilled"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusPartiallyApproved, ItemStatusRejected, ItemStatusFulfilled:
		return true
	}
	return false
}

// RequestType 请购类型
type RequestType string

const (
	RequestTypeRestock   RequestType = "restock"
	RequestTypeNewItem   RequestType = "new_item"
	RequestTypeEmergency RequestType = "emergency"
	RequestTypeScheduled RequestType = "scheduled"
	RequestTypeTransfer  RequestType = "transfer"
)

func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeRestock, RequestTypeNewItem, RequestTypeEmergency, RequestTypeScheduled, RequestTypeTransfer:
		return true
	}
	return false
}

// Priority 优先级
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

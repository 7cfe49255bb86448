package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"github.com/bitfantasy/nimo-hq/internal/ir/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequisitionStore 请购单持久化边界
type RequisitionStore interface {
	NumberSource
	Create(ctx context.Context, req *entity.Requisition) error
	FindByID(ctx context.Context, id string) (*entity.Requisition, error)
	FindAll(ctx context.Context, filter repository.RequisitionFilter, page, pageSize int) ([]entity.Requisition, int64, error)
	SaveTransition(ctx context.Context, req *entity.Requisition, expectedVersion int) error
}

// MasterDataSource 门店/商品主数据（外部模块维护）
type MasterDataSource interface {
	FindBranch(ctx context.Context, id string) (*entity.Branch, error)
	FindProducts(ctx context.Context, branchID string, productIDs []string) (map[string]repository.ProductSnapshot, error)
}

// EventPublisher 请购单变更推送
type EventPublisher interface {
	Publish(branchID, eventType string, payload interface{})
}

// RequisitionFilter 列表筛选
type RequisitionFilter = repository.RequisitionFilter

const EventRequisitionUpdate = "requisition_update"

// RequisitionService 内部请购服务
type RequisitionService struct {
	store      RequisitionStore
	masterData MasterDataSource
	sequence   *SequenceGenerator
	recorder   *Recorder
	events     EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewRequisitionService(
	store RequisitionStore,
	masterData MasterDataSource,
	sequence *SequenceGenerator,
	recorder *Recorder,
	logger *zap.Logger,
) *RequisitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sequence == nil && store != nil {
		sequence = NewSequenceGenerator(store, nil, 0)
	}
	return &RequisitionService{
		store:      store,
		masterData: masterData,
		sequence:   sequence,
		recorder:   recorder,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher 注入事件推送（SSE）
func (s *RequisitionService) SetEventPublisher(p EventPublisher) {
	s.events = p
}

// CreateRequisitionRequest 创建请购单请求
type CreateRequisitionRequest struct {
	RequestingBranchID    string                  `json:"requesting_branch_id"`
	RequestType           string                  `json:"request_type"`
	Priority              string                  `json:"priority"`
	RequestedDeliveryDate *time.Time              `json:"requested_delivery_date"`
	Notes                 string                  `json:"notes"`
	AsDraft               bool                    `json:"as_draft"`
	Items                 []CreateRequisitionItem `json:"items"`

	// 客户端提交的汇总字段仅供参考，以行项重算为准
	TotalItems    *int             `json:"total_items,omitempty"`
	TotalQuantity *decimal.Decimal `json:"total_quantity,omitempty"`
}

type CreateRequisitionItem struct {
	ProductID         string           `json:"product_id"`
	Quantity          decimal.Decimal  `json:"quantity"`
	Unit              string           `json:"unit"`
	EstimatedUnitCost *decimal.Decimal `json:"estimated_unit_cost"`
	Notes             string           `json:"notes"`
}

// CreateRequisition 门店创建请购单
func (s *RequisitionService) CreateRequisition(ctx context.Context, req *CreateRequisitionRequest, actor Actor) (*entity.Requisition, error) {
	if s.store == nil || s.masterData == nil {
		return nil, ErrRepositoryNotConfigured
	}

	branchID := strings.TrimSpace(req.RequestingBranchID)
	if branchID == "" {
		branchID = actor.BranchID
	}
	if branchID == "" {
		return nil, validationError("requesting_branch_id is required")
	}
	if !actor.Role.IsHQ() && actor.BranchID != branchID {
		return nil, validationError("cannot create a requisition for another branch")
	}
	if actor.ID == "" {
		return nil, validationError("requester is required")
	}
	if len(req.Items) == 0 {
		return nil, validationError("a requisition needs at least one item")
	}

	requestType := entity.RequestType(req.RequestType)
	if requestType == "" {
		requestType = entity.RequestTypeRestock
	}
	if !requestType.Valid() {
		return nil, validationError("unknown request_type %q", req.RequestType)
	}
	priority := entity.Priority(req.Priority)
	if priority == "" {
		priority = entity.PriorityNormal
	}
	if !priority.Valid() {
		return nil, validationError("unknown priority %q", req.Priority)
	}

	productIDs := make([]string, 0, len(req.Items))
	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, validationError("item %d: product_id is required", i+1)
		}
		if !item.Quantity.IsPositive() {
			return nil, validationError("item %d: quantity must be positive", i+1)
		}
		if item.EstimatedUnitCost != nil && item.EstimatedUnitCost.IsNegative() {
			return nil, validationError("item %d: estimated_unit_cost must not be negative", i+1)
		}
		productIDs = append(productIDs, item.ProductID)
	}

	branch, err := s.masterData.FindBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, validationError("unknown branch %s", branchID)
		}
		return nil, err
	}
	products, err := s.masterData.FindProducts(ctx, branchID, productIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	status := entity.StatusSubmitted
	if req.AsDraft {
		status = entity.StatusDraft
	}
	requisition := &entity.Requisition{
		RequestingBranchID:    branch.ID,
		RequestingBranchCode:  branch.Code,
		RequestType:           requestType,
		Priority:              priority,
		Status:                status,
		RequestedDeliveryDate: req.RequestedDeliveryDate,
		Notes:                 req.Notes,
		RequestedBy:           actor.ID,
		RequestedAt:           now,
		Version:               1,
	}

	for i, item := range req.Items {
		snap, ok := products[item.ProductID]
		if !ok {
			return nil, validationError("item %d: unknown product %s", i+1, item.ProductID)
		}
		unit := item.Unit
		if unit == "" {
			unit = snap.Product.Unit
		}
		if unit == "" {
			unit = "pcs"
		}
		unitCost := snap.Product.UnitCost
		if item.EstimatedUnitCost != nil {
			unitCost = *item.EstimatedUnitCost
		}
		requisition.Items = append(requisition.Items, entity.RequisitionItem{
			ProductID:         snap.Product.ID,
			ProductSKU:        snap.Product.SKU,
			ProductName:       snap.Product.Name,
			Unit:              unit,
			RequestedQuantity: item.Quantity,
			FulfilledQuantity: decimal.Zero,
			CurrentStock:      snap.CurrentStock,
			MinStock:          snap.MinStock,
			EstimatedUnitCost: unitCost,
			Status:            entity.ItemStatusPending,
			Notes:             item.Notes,
			SortOrder:         i + 1,
		})
	}
	Recompute(requisition)

	err = s.sequence.WithNumber(ctx, branch.Code, now, func(number string) error {
		requisition.IRNumber = number
		requisition.ID = ""
		for i := range requisition.Items {
			requisition.Items[i].ID = ""
		}
		return s.store.Create(ctx, requisition)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Requisition created",
		zap.String("id", requisition.ID),
		zap.String("ir_number", requisition.IRNumber),
		zap.String("branch_id", branch.ID),
		zap.Int("items", requisition.TotalItems),
	)

	s.audit(ctx, actor, "requisition.create", requisition, nil, snapshotOf(requisition), req.Notes)
	s.publish(requisition, "create")
	return requisition, nil
}

// Transition 执行一次状态流转：状态+数量在同一事务内落库，审计尽力而为
func (s *RequisitionService) Transition(ctx context.Context, id string, action Action, payload TransitionPayload, actor Actor) (*entity.Requisition, error) {
	if s.store == nil {
		return nil, ErrRepositoryNotConfigured
	}
	if actor.ID == "" {
		return nil, validationError("actor is required")
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("requisition %s: %w", id, err)
	}
	if err := Authorize(current, action, actor); err != nil {
		return nil, err
	}

	next, err := Apply(current, action, payload, actor, s.now())
	if err != nil {
		return nil, err
	}

	if next.FulfillingBranchID != nil && current.FulfillingBranchID == nil && s.masterData != nil {
		if _, err := s.masterData.FindBranch(ctx, *next.FulfillingBranchID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, validationError("unknown fulfilling branch %s", *next.FulfillingBranchID)
			}
			return nil, err
		}
	}

	if err := s.store.SaveTransition(ctx, next, current.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: requisition %s changed while applying %s", ErrConcurrentModification, id, action)
		}
		return nil, err
	}

	s.logger.Info("Requisition transitioned",
		zap.String("id", next.ID),
		zap.String("ir_number", next.IRNumber),
		zap.String("action", string(action)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
		zap.String("actor_id", actor.ID),
	)

	reason := payload.Reason
	s.audit(ctx, actor, "requisition."+string(action), next, snapshotOf(current), snapshotOf(next), reason)
	s.publish(next, string(action))
	return next, nil
}

// GetRequisition 请购单详情（含行项）
func (s *RequisitionService) GetRequisition(ctx context.Context, id string) (*entity.Requisition, error) {
	if s.store == nil {
		return nil, ErrRepositoryNotConfigured
	}
	req, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("requisition %s: %w", id, err)
	}
	return req, nil
}

// ListRequisitions 分页查询请购单
func (s *RequisitionService) ListRequisitions(ctx context.Context, filter RequisitionFilter, page, pageSize int) ([]entity.Requisition, int64, error) {
	if s.store == nil {
		return nil, 0, ErrRepositoryNotConfigured
	}
	if filter.Status != "" && !entity.RequisitionStatus(filter.Status).Valid() {
		return nil, 0, validationError("unknown status %q", filter.Status)
	}
	if filter.Priority != "" && !entity.Priority(filter.Priority).Valid() {
		return nil, 0, validationError("unknown priority %q", filter.Priority)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.FindAll(ctx, filter, page, pageSize)
}

// ListInterventions 门店被总部干预的记录
func (s *RequisitionService) ListInterventions(ctx context.Context, branchID string, from, to time.Time) ([]entity.AuditLog, error) {
	if s.recorder == nil {
		return nil, ErrRepositoryNotConfigured
	}
	return s.recorder.ListInterventions(ctx, branchID, from, to)
}

func (s *RequisitionService) audit(ctx context.Context, actor Actor, action string, req *entity.Requisition, before, after interface{}, reason string) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordBestEffort(ctx, AuditRecord{
		Actor:          actor,
		Action:         action,
		TargetType:     entity.AuditTargetRequisition,
		TargetID:       req.ID,
		TargetBranchID: req.RequestingBranchID,
		Before:         before,
		After:          after,
		Reason:         reason,
	})
}

func (s *RequisitionService) publish(req *entity.Requisition, action string) {
	if s.events == nil {
		return
	}
	s.events.Publish(req.RequestingBranchID, EventRequisitionUpdate, map[string]interface{}{
		"id":        req.ID,
		"ir_number": req.IRNumber,
		"status":    req.Status,
		"action":    action,
		"branch_id": req.RequestingBranchID,
		"version":   req.Version,
	})
}

type requisitionSnapshot struct {
	Status             entity.RequisitionStatus `json:"status"`
	FulfillingBranchID *string                  `json:"fulfilling_branch_id,omitempty"`
	PurchaseOrderID    *string                  `json:"purchase_order_id,omitempty"`
	TotalQuantity      decimal.Decimal          `json:"total_quantity"`
	Items              []itemSnapshot           `json:"items"`
}

type itemSnapshot struct {
	ID                string              `json:"id"`
	Status            entity.ItemStatus   `json:"status"`
	ApprovedQuantity  decimal.NullDecimal `json:"approved_quantity"`
	FulfilledQuantity decimal.Decimal     `json:"fulfilled_quantity"`
}

func snapshotOf(req *entity.Requisition) requisitionSnapshot {
	snap := requisitionSnapshot{
		Status:             req.Status,
		FulfillingBranchID: req.FulfillingBranchID,
		PurchaseOrderID:    req.PurchaseOrderID,
		TotalQuantity:      req.TotalQuantity,
		Items:              make([]itemSnapshot, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		snap.Items = append(snap.Items, itemSnapshot{
			ID:                item.ID,
			Status:            item.Status,
			ApprovedQuantity:  item.ApprovedQuantity,
			FulfilledQuantity: item.FulfilledQuantity,
		})
	}
	return snap
}

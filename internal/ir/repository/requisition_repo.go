package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"gorm.io/gorm"
)

// RequisitionFilter 请购单查询条件
type RequisitionFilter struct {
	Status   string
	Priority string
	BranchID string
}

// RequisitionRepository 请购单仓库
type RequisitionRepository struct {
	db *gorm.DB
}

func NewRequisitionRepository(db *gorm.DB) *RequisitionRepository {
	return &RequisitionRepository{db: db}
}

// FindAll 查询请购单列表
func (r *RequisitionRepository) FindAll(ctx context.Context, filter RequisitionFilter, page, pageSize int) ([]entity.Requisition, int64, error) {
	var items []entity.Requisition
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Requisition{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.BranchID != "" {
		query = query.Where("requesting_branch_id = ?", filter.BranchID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC").
		Order("ir_number DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, classify(err)
	}
	return items, total, nil
}

// FindByID 根据ID查找请购单（含行项）
func (r *RequisitionRepository) FindByID(ctx context.Context, id string) (*entity.Requisition, error) {
	var req entity.Requisition
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, classify(err)
	}
	return &req, nil
}

// Create 创建请购单（含行项）
func (r *RequisitionRepository) Create(ctx context.Context, req *entity.Requisition) error {
	if req.ID == "" {
		req.ID = newID()
	}
	for i := range req.Items {
		if req.Items[i].ID == "" {
			req.Items[i].ID = newID()
		}
		req.Items[i].RequisitionID = req.ID
	}
	if req.Version == 0 {
		req.Version = 1
	}
	return classify(r.db.WithContext(ctx).Create(req).Error)
}

// likeEscaper 门店编码可能含 % 或 _，作为 LIKE 字面量前需转义
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// MaxNumber 查询某前缀下最大的请购单号（前缀后恰好4位序号），无记录返回空串
func (r *RequisitionRepository) MaxNumber(ctx context.Context, prefix string) (string, error) {
	var maxNumber string
	err := r.db.WithContext(ctx).
		Model(&entity.Requisition{}).
		Select("COALESCE(MAX(ir_number), '')").
		Where("ir_number LIKE ? ESCAPE '\\'", likeEscaper.Replace(prefix)+"%").
		// SQLite 的 LIKE 不区分大小写
		Where("SUBSTR(ir_number, 1, ?) = ?", len(prefix), prefix).
		Where("LENGTH(ir_number) = ?", len(prefix)+4).
		Scan(&maxNumber).Error
	if err != nil {
		return "", classify(err)
	}
	return maxNumber, nil
}

// SaveTransition 在一个事务内保存状态流转结果（主表+行项），按version做乐观锁
func (r *RequisitionRepository) SaveTransition(ctx context.Context, req *entity.Requisition, expectedVersion int) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Requisition{}).
			Where("id = ? AND version = ?", req.ID, expectedVersion).
			Updates(map[string]interface{}{
				"status":               req.Status,
				"fulfilling_branch_id": req.FulfillingBranchID,
				"purchase_order_id":    req.PurchaseOrderID,
				"actual_delivery_date": req.ActualDeliveryDate,
				"total_items":          req.TotalItems,
				"total_quantity":       req.TotalQuantity,
				"estimated_value":      req.EstimatedValue,
				"rejection_reason":     req.RejectionReason,
				"cancel_reason":        req.CancelReason,
				"reviewed_by":          req.ReviewedBy,
				"reviewed_at":          req.ReviewedAt,
				"approved_by":          req.ApprovedBy,
				"approved_at":          req.ApprovedAt,
				"completed_at":         req.CompletedAt,
				"cancelled_at":         req.CancelledAt,
				"version":              gorm.Expr("version + 1"),
				"updated_at":           now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		for _, item := range req.Items {
			err := tx.Model(&entity.RequisitionItem{}).
				Where("id = ? AND requisition_id = ?", item.ID, req.ID).
				Updates(map[string]interface{}{
					"approved_quantity":  item.ApprovedQuantity,
					"fulfilled_quantity": item.FulfilledQuantity,
					"status":             item.Status,
					"rejection_reason":   item.RejectionReason,
					"updated_at":         now,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrVersionConflict) {
		return err
	}
	if err != nil {
		return classify(err)
	}
	req.Version = expectedVersion + 1
	req.UpdatedAt = now
	return nil
}
